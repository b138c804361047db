package protocol

// ScratchOutput collects response bytes until the transport drains them.
// It never allocates while collecting, so the firmware loop can use it freely.
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

// NewScratchOutput creates an empty output buffer
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends data; bytes past the end of the scratch area are dropped
func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

// Len returns the number of pending bytes
func (s *ScratchOutput) Len() int {
	return s.n
}

// IsEmpty reports whether everything written has been drained
func (s *ScratchOutput) IsEmpty() bool {
	return s.n == 0
}

// Drain returns a copy of the pending bytes and empties the buffer
func (s *ScratchOutput) Drain() []byte {
	if s.n == 0 {
		return nil
	}
	out := append([]byte(nil), s.buf[:s.n]...)
	s.n = 0
	return out
}

// Reset discards pending bytes
func (s *ScratchOutput) Reset() {
	s.n = 0
}

// FifoBuffer is a fixed-capacity ring of received bytes. Writes past
// capacity are refused, never overwrite unread bytes.
type FifoBuffer struct {
	buf   []byte
	head  int // next byte to read
	count int
}

// NewFifoBuffer creates a FIFO holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write queues as much of data as fits and returns the number of bytes taken
func (f *FifoBuffer) Write(data []byte) int {
	n := min(len(data), f.Free())
	for i := 0; i < n; i++ {
		f.buf[(f.head+f.count)%len(f.buf)] = data[i]
		f.count++
	}
	return n
}

// ReadByte removes and returns the oldest byte
func (f *FifoBuffer) ReadByte() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	b := f.buf[f.head]
	f.head = (f.head + 1) % len(f.buf)
	f.count--
	return b, true
}

// Peek returns the oldest byte without removing it
func (f *FifoBuffer) Peek() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	return f.buf[f.head], true
}

// Read moves up to len(data) bytes out of the FIFO, oldest first
func (f *FifoBuffer) Read(data []byte) int {
	n := 0
	for n < len(data) {
		b, ok := f.ReadByte()
		if !ok {
			break
		}
		data[n] = b
		n++
	}
	return n
}

// Available returns the number of unread bytes
func (f *FifoBuffer) Available() int {
	return f.count
}

// Free returns the number of bytes that can still be written
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.count
}

// IsEmpty reports whether there is nothing to read
func (f *FifoBuffer) IsEmpty() bool {
	return f.count == 0
}

// Reset discards all unread bytes
func (f *FifoBuffer) Reset() {
	f.head = 0
	f.count = 0
}
