package kinematics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"scarastylus/scara"
)

// Solver stages, reported in UnreachableError
const (
	StageElbow2 = "elbow2" // right elbow from the target
	StageKnee   = "knee"   // fork triangle at the knee
	StageElbow1 = "elbow1" // left elbow from the knee
	StageCircle = "circle" // forward solution: L2 circles do not meet
)

// FiveBar solves the parallel five-bar linkage. The right L2 link carries a
// rigid extension L3 at the fork angle; its end is the stylus tip.
type FiveBar struct {
	geom scara.Geometry

	// distance from the right elbow to the tip, fixed by L2, L3 and the fork
	tipReach float64
}

// NewFiveBar creates a solver for the given geometry
func NewFiveBar(g scara.Geometry) (*FiveBar, error) {
	if g.L1 <= 0 || g.L2 <= 0 || g.L3 <= 0 {
		return nil, errors.New("link lengths must be positive")
	}
	if g.ForkAngle <= 0 || g.ForkAngle >= math.Pi {
		return nil, errors.New("fork angle must be within (0, pi)")
	}
	if g.Pivot1 == g.Pivot2 {
		return nil, errors.New("pivots must be distinct")
	}

	reach := math.Sqrt(g.L2*g.L2 + g.L3*g.L3 - 2*g.L2*g.L3*math.Cos(g.ForkAngle))

	return &FiveBar{
		geom:     g,
		tipReach: reach,
	}, nil
}

// Geometry returns the linkage dimensions
func (k *FiveBar) Geometry() scara.Geometry {
	return k.geom
}

// cosineRule returns the angle opposite side b in a triangle with sides a, b, c.
// The argument to acos is checked before use; degenerate triangles produce
// NaN or Inf and are rejected the same way as out-of-range arguments.
func cosineRule(a, b, c float64) (angle, arg float64, ok bool) {
	arg = (a*a + c*c - b*b) / (2 * a * c)
	if math.IsNaN(arg) || math.IsInf(arg, 0) || arg < -1 || arg > 1 {
		return 0, arg, false
	}
	return math.Acos(arg), arg, true
}

// Solve converts a stylus position to servo angles
func (k *FiveBar) Solve(target scara.Point) (scara.JointAngles, error) {
	g := k.geom
	p1, p2 := g.Pivot1, g.Pivot2

	// Right elbow
	a := r2.Norm(r2.Sub(p2, target))
	corner, arg, ok := cosineRule(a, k.tipReach, g.L1)
	if !ok {
		return scara.JointAngles{}, &UnreachableError{Target: target, Stage: StageElbow2, Arg: arg}
	}
	beta := math.Atan2(target.Y-p2.Y, p2.X-target.X) + corner
	gamma := math.Pi - beta
	e2 := r2.Add(p2, r2.Scale(g.L1, r2.Vec{X: math.Cos(gamma), Y: math.Sin(gamma)}))

	// Knee, where both L2 links meet
	delta := math.Atan2(e2.X-target.X, target.Y-e2.Y)
	theta, arg, ok := cosineRule(k.tipReach, g.L2, g.L3)
	if !ok {
		return scara.JointAngles{}, &UnreachableError{Target: target, Stage: StageKnee, Arg: arg}
	}
	knee := r2.Add(target, r2.Scale(g.L3, r2.Vec{X: math.Sin(delta - theta), Y: -math.Cos(delta - theta)}))

	// Left elbow
	c := r2.Norm(r2.Sub(knee, p1))
	corner, arg, ok = cosineRule(c, g.L2, g.L1)
	if !ok {
		return scara.JointAngles{}, &UnreachableError{Target: target, Stage: StageElbow1, Arg: arg}
	}
	alpha := math.Atan2(knee.Y-p1.Y, knee.X-p1.X) + corner

	angles := scara.JointAngles{
		Left:  degrees(alpha) + g.Offset1,
		Right: degrees(gamma) + g.Offset2,
	}
	if !finite(angles.Left) || !finite(angles.Right) {
		return scara.JointAngles{}, &UnreachableError{Target: target, Stage: StageElbow1, Arg: math.NaN()}
	}
	return angles, nil
}

// Forward converts servo angles back to a stylus position
func (k *FiveBar) Forward(angles scara.JointAngles) (scara.Point, error) {
	g := k.geom
	alpha := radians(angles.Left - g.Offset1)
	gamma := radians(angles.Right - g.Offset2)

	e1 := r2.Add(g.Pivot1, r2.Scale(g.L1, r2.Vec{X: math.Cos(alpha), Y: math.Sin(alpha)}))
	e2 := r2.Add(g.Pivot2, r2.Scale(g.L1, r2.Vec{X: math.Cos(gamma), Y: math.Sin(gamma)}))

	span := r2.Sub(e2, e1)
	d := r2.Norm(span)
	half := d / 2
	if d == 0 || half > g.L2 {
		return scara.Point{}, &UnreachableError{Stage: StageCircle, Arg: half / g.L2}
	}

	// Knee on the left of the e1->e2 direction
	u := r2.Unit(span)
	h := math.Sqrt(g.L2*g.L2 - half*half)
	mid := r2.Add(e1, r2.Scale(0.5, span))
	knee := r2.Add(mid, r2.Scale(h, r2.Vec{X: -u.Y, Y: u.X}))

	link := r2.Unit(r2.Sub(knee, e2))
	ext := r2.Rotate(link, -(math.Pi - g.ForkAngle), r2.Vec{})
	return r2.Add(knee, r2.Scale(g.L3, ext)), nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
