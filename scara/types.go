// Package scara holds the shared types of the five-bar stylus machine
package scara

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"scarastylus/core"
	"scarastylus/protocol"
)

// Point is a position in the drawing plane, in millimetres
type Point = r2.Vec

// JointAngles are the two arm servo angles in degrees, offsets applied
type JointAngles struct {
	Left  float64 // servo on pivot 1
	Right float64 // servo on pivot 2
}

// MotionState is the last commanded stylus position and lift state.
// Position always equals the last point the solver accepted.
type MotionState struct {
	Position Point
	Lifted   bool
}

// SlideDirection is one of the four slide gestures
type SlideDirection uint8

const (
	SlideRight SlideDirection = iota
	SlideDown
	SlideLeft
	SlideUp
)

func (d SlideDirection) String() string {
	switch d {
	case SlideRight:
		return "right"
	case SlideDown:
		return "down"
	case SlideLeft:
		return "left"
	case SlideUp:
		return "up"
	default:
		return "invalid"
	}
}

// Vector returns the displacement of a slide of the given length.
// Machine x grows downward and y grows to the right.
func (d SlideDirection) Vector(length float64) Point {
	switch d {
	case SlideRight:
		return Point{X: 0, Y: length}
	case SlideDown:
		return Point{X: length, Y: 0}
	case SlideLeft:
		return Point{X: 0, Y: -length}
	case SlideUp:
		return Point{X: -length, Y: 0}
	default:
		return Point{}
	}
}

// Byte returns the command byte for the direction
func (d SlideDirection) Byte() byte {
	return protocol.CmdSlideRight + byte(d)
}

// DirectionFromByte maps a command byte to its direction
func DirectionFromByte(b byte) (SlideDirection, bool) {
	if !protocol.IsSlideCommand(b) {
		return 0, false
	}
	return SlideDirection(b - protocol.CmdSlideRight), true
}

// Directions lists every slide direction in command byte order
var Directions = [...]SlideDirection{SlideRight, SlideDown, SlideLeft, SlideUp}

// Geometry describes the five-bar linkage. Lengths in mm, fork in radians,
// offsets in degrees.
type Geometry struct {
	Pivot1    Point   `yaml:"pivot1"`
	Pivot2    Point   `yaml:"pivot2"`
	L1        float64 `yaml:"l1"` // pivot to elbow
	L2        float64 `yaml:"l2"` // elbow to knee
	L3        float64 `yaml:"l3"` // knee to stylus tip, rigid with the right L2
	ForkAngle float64 `yaml:"fork_angle"`
	Offset1   float64 `yaml:"offset1"`
	Offset2   float64 `yaml:"offset2"`
}

// Poses are the fixed points and lift angles of the choreography
type Poses struct {
	Rest         Point   `yaml:"rest"`
	Center       Point   `yaml:"center"`
	LiftAngle    float64 `yaml:"lift_angle"`
	DescendAngle float64 `yaml:"descend_angle"`
}

// ServoConfig binds a servo channel to a pin and pulse range
type ServoConfig struct {
	Pin             uint8 `yaml:"pin"`
	core.PulseRange `yaml:",inline"`
}

// Servos holds the three servo bindings
type Servos struct {
	Left  ServoConfig `yaml:"left"`
	Right ServoConfig `yaml:"right"`
	Lift  ServoConfig `yaml:"lift"`
}

// Get returns the binding for a channel
func (s Servos) Get(ch core.ServoChannel) ServoConfig {
	switch ch {
	case core.ServoLeft:
		return s.Left
	case core.ServoRight:
		return s.Right
	default:
		return s.Lift
	}
}

// Timing holds the choreography settle times and loop period
type Timing struct {
	Settle     time.Duration `yaml:"settle"`      // after centering, descending and sliding
	LiftSettle time.Duration `yaml:"lift_settle"` // after lifting
	Startup    time.Duration `yaml:"startup"`     // before the first command is accepted
	Poll       time.Duration `yaml:"poll"`        // idle loop period
}

// Serial describes the command link
type Serial struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Motion controls path interpolation and the slide gesture
type Motion struct {
	StepsPerMM  float64 `yaml:"steps_per_mm"`
	SlideLength float64 `yaml:"slide_length"`
}

// Config is the complete machine configuration
type Config struct {
	Geometry Geometry `yaml:"geometry"`
	Poses    Poses    `yaml:"poses"`
	Servos   Servos   `yaml:"servos"`
	Timing   Timing   `yaml:"timing"`
	Serial   Serial   `yaml:"serial"`
	Motion   Motion   `yaml:"motion"`
}
