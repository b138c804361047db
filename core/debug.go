package core

import "time"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// MotionEvent captures a motion-relevant event for post-mortem analysis
type MotionEvent struct {
	EventType uint8     // Event type code
	Arg       uint8     // Servo channel, state or command byte
	Value     float64   // Context-dependent value (degrees, x coordinate)
	Value2    float64   // Context-dependent value (y coordinate)
	At        time.Time // Scheduler time of the event
}

// Event type codes
const (
	EvtServoWrite  = 1 // angle written to a servo channel
	EvtStateEnter  = 2 // choreography entered a state
	EvtCommand     = 3 // command byte taken from the input buffer
	EvtAck         = 4 // acknowledgement queued
	EvtUnreachable = 5 // target rejected by the solver
	EvtPosition    = 6 // motion state moved to a new point
	EvtError       = 7 // command processing failed
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

// Debug routes debug output to a platform writer and keeps a ring of recent
// motion events. A nil *Debug is valid and discards everything.
type Debug struct {
	writer  DebugWriter
	enabled bool

	ring     [TimingRingSize]MotionEvent
	ringHead uint8

	now func() time.Time
}

// NewDebug creates a debug sink; output is enabled when writer is non-nil
func NewDebug(writer DebugWriter) *Debug {
	return &Debug{
		writer:  writer,
		enabled: writer != nil,
	}
}

// SetDebugWriter sets the platform-specific debug output function
func (d *Debug) SetDebugWriter(writer DebugWriter) {
	if d == nil {
		return
	}
	d.writer = writer
}

// SetEnabled enables or disables debug output
func (d *Debug) SetEnabled(enabled bool) {
	if d == nil {
		return
	}
	d.enabled = enabled
}

// IsEnabled returns whether debug output is enabled
func (d *Debug) IsEnabled() bool {
	return d != nil && d.enabled && d.writer != nil
}

// Println writes a debug message using the platform-specific writer
func (d *Debug) Println(msg string) {
	if d.IsEnabled() {
		d.writer(msg)
	}
}

// SetTimeSource sets the function used to stamp recorded events
func (d *Debug) SetTimeSource(now func() time.Time) {
	if d == nil {
		return
	}
	d.now = now
}

// Record captures an event in the ring buffer. Always on, never blocks.
// Events without a time are stamped from the time source, if any.
func (d *Debug) Record(evt MotionEvent) {
	if d == nil {
		return
	}
	if evt.At.IsZero() && d.now != nil {
		evt.At = d.now()
	}
	idx := d.ringHead
	d.ring[idx] = evt
	d.ringHead = (idx + 1) % TimingRingSize
}

// Events returns the recorded events, oldest first
func (d *Debug) Events() []MotionEvent {
	if d == nil {
		return nil
	}
	events := make([]MotionEvent, 0, TimingRingSize)
	start := d.ringHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := d.ring[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpRing writes the event ring through the debug writer, even when
// regular debug output is disabled
func (d *Debug) DumpRing() {
	if d == nil || d.writer == nil {
		return
	}

	d.writer("[MOTION] === Event Ring Dump ===")
	for _, evt := range d.Events() {
		d.writer("[MOTION] " + eventName(evt.EventType) +
			" arg=" + itoa(int(evt.Arg)) +
			" v1=" + ftoa(evt.Value) +
			" v2=" + ftoa(evt.Value2))
	}
	d.writer("[MOTION] === End Dump ===")
}

// ClearRing clears the event buffer
func (d *Debug) ClearRing() {
	if d == nil {
		return
	}
	for i := range d.ring {
		d.ring[i] = MotionEvent{}
	}
	d.ringHead = 0
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtServoWrite:
		return "SERVO_WRITE"
	case EvtStateEnter:
		return "STATE_ENTER"
	case EvtCommand:
		return "COMMAND"
	case EvtAck:
		return "ACK"
	case EvtUnreachable:
		return "UNREACHABLE!"
	case EvtPosition:
		return "POSITION"
	case EvtError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
