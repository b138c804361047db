package scara

import (
	"math"
	"time"

	"scarastylus/core"
	"scarastylus/protocol"
)

// DefaultForkAngle is the angle between L2 and L3 at the knee
const DefaultForkAngle = math.Pi - math.Pi/4

// DefaultGeometry returns the dimensions of the reference arm
func DefaultGeometry() Geometry {
	return Geometry{
		Pivot1:    Point{X: 0, Y: 0},
		Pivot2:    Point{X: 50, Y: 0},
		L1:        75,
		L2:        100,
		L3:        36,
		ForkAngle: DefaultForkAngle,
		Offset1:   -13,
		Offset2:   -5,
	}
}

// DefaultConfig returns the configuration of the reference machine
func DefaultConfig() *Config {
	return &Config{
		Geometry: DefaultGeometry(),
		Poses: Poses{
			Rest:         Point{X: 32, Y: 130},
			Center:       Point{X: 15, Y: 150},
			LiftAngle:    32,
			DescendAngle: 10,
		},
		Servos: Servos{
			Left:  ServoConfig{Pin: 3, PulseRange: core.DefaultPulseRange()},
			Right: ServoConfig{Pin: 4, PulseRange: core.DefaultPulseRange()},
			Lift:  ServoConfig{Pin: 5, PulseRange: core.DefaultPulseRange()},
		},
		Timing: Timing{
			Settle:     200 * time.Millisecond,
			LiftSettle: 300 * time.Millisecond,
			Startup:    200 * time.Millisecond,
			Poll:       10 * time.Millisecond,
		},
		Serial: Serial{
			Baud: protocol.DefaultBaud,
		},
		Motion: Motion{
			StepsPerMM:  1,
			SlideLength: 15,
		},
	}
}
