// Package stylus raises and lowers the stylus tip
package stylus

import (
	"fmt"

	"scarastylus/core"
	"scarastylus/scara"
)

// Stylus drives the lift servo. Lift and Descend are idempotent.
type Stylus struct {
	driver       core.ServoDriver
	state        *scara.MotionState
	liftAngle    float64
	descendAngle float64
	debug        *core.Debug
}

// New creates a stylus actuator sharing the machine's motion state
func New(driver core.ServoDriver, state *scara.MotionState, poses scara.Poses, debug *core.Debug) *Stylus {
	return &Stylus{
		driver:       driver,
		state:        state,
		liftAngle:    poses.LiftAngle,
		descendAngle: poses.DescendAngle,
		debug:        debug,
	}
}

// Lifted reports whether the tip is up
func (s *Stylus) Lifted() bool {
	return s.state.Lifted
}

// Lift raises the tip if it is down
func (s *Stylus) Lift() error {
	if s.state.Lifted {
		return nil
	}
	if err := s.set(s.liftAngle); err != nil {
		return err
	}
	s.state.Lifted = true
	return nil
}

// Descend lowers the tip if it is up
func (s *Stylus) Descend() error {
	if !s.state.Lifted {
		return nil
	}
	if err := s.set(s.descendAngle); err != nil {
		return err
	}
	s.state.Lifted = false
	return nil
}

func (s *Stylus) set(degrees float64) error {
	if err := s.driver.WriteAngle(core.ServoLift, degrees); err != nil {
		return fmt.Errorf("write lift servo: %w", err)
	}
	s.debug.Record(core.MotionEvent{EventType: core.EvtServoWrite, Arg: uint8(core.ServoLift), Value: degrees})
	return nil
}
