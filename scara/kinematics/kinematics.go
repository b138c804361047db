// Package kinematics converts between stylus positions and servo angles
package kinematics

import (
	"strconv"

	"scarastylus/scara"
)

// Kinematics defines the interface for coordinate transformations
type Kinematics interface {
	// Solve converts a stylus position to servo angles
	Solve(target scara.Point) (scara.JointAngles, error)

	// Forward converts servo angles back to a stylus position
	Forward(angles scara.JointAngles) (scara.Point, error)
}

// UnreachableError reports the solver stage that rejected a target and
// the cosine argument it computed there
type UnreachableError struct {
	Target scara.Point
	Stage  string
	Arg    float64
}

func (e *UnreachableError) Error() string {
	return "target (" + fmtFloat(e.Target.X) + ", " + fmtFloat(e.Target.Y) +
		") unreachable at " + e.Stage + ": cosine argument " + fmtFloat(e.Arg)
}

// Is lets errors.Is match scara.ErrUnreachable
func (e *UnreachableError) Is(target error) bool {
	return target == scara.ErrUnreachable
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
