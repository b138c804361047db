// Package planner moves the stylus tip to points and along straight lines
package planner

import (
	"errors"
	"fmt"

	"scarastylus/core"
	"scarastylus/scara"
	"scarastylus/scara/kinematics"
)

// Planner handles motion planning and execution
type Planner struct {
	kinematics kinematics.Kinematics
	driver     core.ServoDriver
	state      *scara.MotionState
	density    float64
	debug      *core.Debug
}

// NewPlanner creates a new motion planner working on state
func NewPlanner(kin kinematics.Kinematics, driver core.ServoDriver, state *scara.MotionState, density float64, debug *core.Debug) *Planner {
	return &Planner{
		kinematics: kin,
		driver:     driver,
		state:      state,
		density:    density,
		debug:      debug,
	}
}

// Position returns the last commanded stylus position
func (p *Planner) Position() scara.Point {
	return p.state.Position
}

// GoTo solves for target and commands both arm servos, right first.
// The motion state is updated only after both writes succeed.
func (p *Planner) GoTo(target scara.Point) error {
	angles, err := p.kinematics.Solve(target)
	if err != nil {
		p.debug.Record(core.MotionEvent{EventType: core.EvtUnreachable, Value: target.X, Value2: target.Y})
		return err
	}

	if err := p.write(core.ServoRight, angles.Right); err != nil {
		return err
	}
	if err := p.write(core.ServoLeft, angles.Left); err != nil {
		return err
	}

	p.state.Position = target
	p.debug.Record(core.MotionEvent{EventType: core.EvtPosition, Value: target.X, Value2: target.Y})
	return nil
}

func (p *Planner) write(ch core.ServoChannel, degrees float64) error {
	if err := p.driver.WriteAngle(ch, degrees); err != nil {
		return fmt.Errorf("write %s servo: %w", ch, err)
	}
	p.debug.Record(core.MotionEvent{EventType: core.EvtServoWrite, Arg: uint8(ch), Value: degrees})
	return nil
}

// LineTo moves to from, then through the interpolated waypoints to to.
// A line too short for any waypoint ends after the move to from.
// On error the state stays at the last waypoint reached.
func (p *Planner) LineTo(from, to scara.Point) error {
	if err := p.GoTo(from); err != nil {
		return err
	}

	plan, err := NewPlan(from, to, p.density)
	if errors.Is(err, scara.ErrDegenerateMove) {
		p.debug.Println("[PLANNER] degenerate move skipped")
		return nil
	}
	if err != nil {
		return err
	}

	for pt := range plan.Waypoints() {
		if err := p.GoTo(pt); err != nil {
			return err
		}
	}
	return nil
}
