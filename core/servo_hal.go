package core

import (
	"errors"
	"sync"
)

// ServoChannel identifies one of the three hobby servos
type ServoChannel uint8

const (
	ServoLeft  ServoChannel = iota // pivot 1
	ServoRight                     // pivot 2
	ServoLift                      // stylus lift
	NumServos
)

func (c ServoChannel) String() string {
	switch c {
	case ServoLeft:
		return "left"
	case ServoRight:
		return "right"
	case ServoLift:
		return "lift"
	default:
		return "servo(" + itoa(int(c)) + ")"
	}
}

// ErrBadChannel is returned for a channel outside ServoLeft..ServoLift
var ErrBadChannel = errors.New("invalid servo channel")

// ServoDriver is the abstract servo interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type ServoDriver interface {
	// WriteAngle commands a servo to an angle in degrees.
	// Values outside 0..180 are clamped by the implementation.
	WriteAngle(ch ServoChannel, degrees float64) error
}

// PulseRange maps degrees to a pulse width in microseconds
type PulseRange struct {
	MinDeg float64 `yaml:"min_deg"`
	MaxDeg float64 `yaml:"max_deg"`
	MinUs  uint32  `yaml:"min_us"`
	MaxUs  uint32  `yaml:"max_us"`
}

// Default hobby servo timing: 544us at 0 degrees, 2400us at 180 degrees
const (
	DefaultMinPulseUs = 544
	DefaultMaxPulseUs = 2400
	ServoPeriodUs     = 20000
)

// DefaultPulseRange returns the standard 0..180 degree range
func DefaultPulseRange() PulseRange {
	return PulseRange{
		MinDeg: 0,
		MaxDeg: 180,
		MinUs:  DefaultMinPulseUs,
		MaxUs:  DefaultMaxPulseUs,
	}
}

// PulseWidth converts an angle to a pulse width, clamping to the range
func (r PulseRange) PulseWidth(degrees float64) uint32 {
	if r.MaxDeg <= r.MinDeg {
		return r.MinUs
	}
	if degrees != degrees || degrees < r.MinDeg { // NaN clamps low
		degrees = r.MinDeg
	}
	if degrees > r.MaxDeg {
		degrees = r.MaxDeg
	}
	span := float64(r.MaxUs) - float64(r.MinUs)
	us := float64(r.MinUs) + (degrees-r.MinDeg)/(r.MaxDeg-r.MinDeg)*span
	return uint32(us + 0.5)
}

// ServoWrite is one recorded call to WriteAngle
type ServoWrite struct {
	Channel ServoChannel
	Degrees float64
}

// RecordingDriver is a ServoDriver that remembers every write.
// Used by the simulator and by tests.
type RecordingDriver struct {
	mu     sync.Mutex
	writes []ServoWrite
	last   [NumServos]float64
	seen   [NumServos]bool

	// FailOn makes WriteAngle return the error for that channel
	FailOn map[ServoChannel]error
}

// NewRecordingDriver creates an empty recording driver
func NewRecordingDriver() *RecordingDriver {
	return &RecordingDriver{}
}

// WriteAngle records the write
func (d *RecordingDriver) WriteAngle(ch ServoChannel, degrees float64) error {
	if ch >= NumServos {
		return ErrBadChannel
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.FailOn[ch]; err != nil {
		return err
	}
	d.writes = append(d.writes, ServoWrite{Channel: ch, Degrees: degrees})
	d.last[ch] = degrees
	d.seen[ch] = true
	return nil
}

// Writes returns a copy of all recorded writes
func (d *RecordingDriver) Writes() []ServoWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ServoWrite, len(d.writes))
	copy(out, d.writes)
	return out
}

// Last returns the most recent angle written to ch
func (d *RecordingDriver) Last(ch ServoChannel) (float64, bool) {
	if ch >= NumServos {
		return 0, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last[ch], d.seen[ch]
}

// Reset forgets all recorded writes
func (d *RecordingDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = nil
	d.last = [NumServos]float64{}
	d.seen = [NumServos]bool{}
}
