package planner

import (
	"errors"
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"scarastylus/scara"
)

// Plan is a straight segment split into equal steps
type Plan struct {
	From  scara.Point
	To    scara.Point
	Steps int
}

// StepCount returns the number of waypoints a line of the given length
// gets at density points per millimetre
func StepCount(from, to scara.Point, density float64) int {
	n := math.Round(density * r2.Norm(r2.Sub(to, from)))
	if !(n > 0) || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}

// NewPlan splits the segment from..to. A segment that yields no waypoints
// returns ErrDegenerateMove.
func NewPlan(from, to scara.Point, density float64) (Plan, error) {
	if !(density > 0) {
		return Plan{}, errors.New("density must be positive")
	}
	n := StepCount(from, to, density)
	if n == 0 {
		return Plan{From: from, To: to}, scara.ErrDegenerateMove
	}
	return Plan{From: from, To: to, Steps: n}, nil
}

// Waypoints yields the points i/n along the segment for i = 1..n.
// The last point is To exactly. The start point is not included.
func (p Plan) Waypoints() iter.Seq[scara.Point] {
	return func(yield func(scara.Point) bool) {
		delta := r2.Sub(p.To, p.From)
		for i := 1; i <= p.Steps; i++ {
			pt := p.To
			if i < p.Steps {
				pt = r2.Add(p.From, r2.Scale(float64(i)/float64(p.Steps), delta))
			}
			if !yield(pt) {
				return
			}
		}
	}
}

// Line yields the waypoints of from..to; an empty sequence when degenerate
func Line(from, to scara.Point, density float64) iter.Seq[scara.Point] {
	plan, err := NewPlan(from, to, density)
	if err != nil {
		plan.Steps = 0
	}
	return plan.Waypoints()
}
