package protocol

// AckQueue holds response bytes taken from a producer until a transport has
// written all of them. Nothing is dropped on write failures; the bytes stay
// queued and the next Pump retries them.
type AckQueue struct {
	pending  []byte
	failures uint32
}

// Busy reports whether bytes are still waiting for the transport. No new
// command may be taken while it is true.
func (q *AckQueue) Busy() bool {
	return len(q.pending) > 0
}

// Failures returns the number of consecutive write attempts that made no
// progress
func (q *AckQueue) Failures() uint32 {
	return q.failures
}

// Pump takes output from next only when the queue is empty, then writes as
// much as write accepts. It returns true once the queue is empty.
func (q *AckQueue) Pump(next func() []byte, write func([]byte) (int, error)) bool {
	if len(q.pending) == 0 {
		q.pending = append(q.pending[:0], next()...)
	}

	for len(q.pending) > 0 {
		n, err := write(q.pending)
		if n > 0 {
			q.pending = q.pending[n:]
			q.failures = 0
		}
		if err != nil || n == 0 {
			q.failures++
			return false
		}
	}
	return true
}
