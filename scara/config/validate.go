package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r2"

	"scarastylus/core"
	"scarastylus/scara"
	"scarastylus/scara/kinematics"
	"scarastylus/scara/planner"
)

// Validate checks every setting and reports all problems at once. It also
// solves each choreography pose and every waypoint of the four slides so an
// unreachable setup is caught before the machine moves.
func Validate(cfg *scara.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var err error
	g := cfg.Geometry

	if g.L1 <= 0 {
		err = multierr.Append(err, errors.New("geometry.l1 must be > 0"))
	}
	if g.L2 <= 0 {
		err = multierr.Append(err, errors.New("geometry.l2 must be > 0"))
	}
	if g.L3 <= 0 {
		err = multierr.Append(err, errors.New("geometry.l3 must be > 0"))
	}
	if g.ForkAngle <= 0 || g.ForkAngle >= math.Pi {
		err = multierr.Append(err, errors.New("geometry.fork_angle must be within (0, pi)"))
	}
	if g.Pivot1 == g.Pivot2 {
		err = multierr.Append(err, errors.New("geometry.pivot1 and geometry.pivot2 must differ"))
	}

	err = multierr.Append(err, validateServo("servos.left", cfg.Servos.Left))
	err = multierr.Append(err, validateServo("servos.right", cfg.Servos.Right))
	err = multierr.Append(err, validateServo("servos.lift", cfg.Servos.Lift))

	pins := map[uint8]string{}
	for _, ch := range []core.ServoChannel{core.ServoLeft, core.ServoRight, core.ServoLift} {
		pin := cfg.Servos.Get(ch).Pin
		if other, dup := pins[pin]; dup {
			err = multierr.Append(err, fmt.Errorf("servos.%s.pin %d already used by servos.%s", ch, pin, other))
		}
		pins[pin] = ch.String()
	}

	lift := cfg.Servos.Lift
	if !inRange(lift.PulseRange, cfg.Poses.LiftAngle) {
		err = multierr.Append(err, fmt.Errorf("poses.lift_angle %.1f outside servo range", cfg.Poses.LiftAngle))
	}
	if !inRange(lift.PulseRange, cfg.Poses.DescendAngle) {
		err = multierr.Append(err, fmt.Errorf("poses.descend_angle %.1f outside servo range", cfg.Poses.DescendAngle))
	}
	if cfg.Poses.LiftAngle == cfg.Poses.DescendAngle {
		err = multierr.Append(err, errors.New("poses.lift_angle must differ from poses.descend_angle"))
	}

	if cfg.Timing.Settle < 0 {
		err = multierr.Append(err, errors.New("timing.settle must be >= 0"))
	}
	if cfg.Timing.LiftSettle < 0 {
		err = multierr.Append(err, errors.New("timing.lift_settle must be >= 0"))
	} else if cfg.Timing.LiftSettle < cfg.Timing.Settle {
		err = multierr.Append(err, errors.New("timing.lift_settle must not be shorter than timing.settle"))
	}
	if cfg.Timing.Startup < 0 {
		err = multierr.Append(err, errors.New("timing.startup must be >= 0"))
	}
	if cfg.Timing.Poll <= 0 {
		err = multierr.Append(err, errors.New("timing.poll must be > 0"))
	}

	if cfg.Serial.Baud <= 0 {
		err = multierr.Append(err, errors.New("serial.baud must be > 0"))
	}

	if cfg.Motion.StepsPerMM <= 0 {
		err = multierr.Append(err, errors.New("motion.steps_per_mm must be > 0"))
	}
	if cfg.Motion.SlideLength <= 0 {
		err = multierr.Append(err, errors.New("motion.slide_length must be > 0"))
	}

	// Workspace checks need a valid linkage
	if err != nil {
		return err
	}
	return validateWorkspace(cfg)
}

func validateServo(name string, s scara.ServoConfig) error {
	var err error
	if s.MinDeg >= s.MaxDeg {
		err = multierr.Append(err, fmt.Errorf("%s: min_deg must be < max_deg", name))
	}
	if s.MinUs >= s.MaxUs {
		err = multierr.Append(err, fmt.Errorf("%s: min_us must be < max_us", name))
	}
	if s.MaxUs >= core.ServoPeriodUs {
		err = multierr.Append(err, fmt.Errorf("%s: max_us must be < %d", name, core.ServoPeriodUs))
	}
	return err
}

func inRange(r core.PulseRange, deg float64) bool {
	return deg >= r.MinDeg && deg <= r.MaxDeg
}

func validateWorkspace(cfg *scara.Config) error {
	kin, err := kinematics.NewFiveBar(cfg.Geometry)
	if err != nil {
		return err
	}

	check := func(name string, p scara.Point) error {
		angles, err := kin.Solve(p)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !inRange(cfg.Servos.Left.PulseRange, angles.Left) {
			return fmt.Errorf("%s: left servo angle %.1f outside servo range", name, angles.Left)
		}
		if !inRange(cfg.Servos.Right.PulseRange, angles.Right) {
			return fmt.Errorf("%s: right servo angle %.1f outside servo range", name, angles.Right)
		}
		return nil
	}

	err = multierr.Append(err, check("poses.rest", cfg.Poses.Rest))
	err = multierr.Append(err, check("poses.center", cfg.Poses.Center))

	for _, dir := range scara.Directions {
		end := r2.Add(cfg.Poses.Center, dir.Vector(cfg.Motion.SlideLength))
		for pt := range planner.Line(cfg.Poses.Center, end, cfg.Motion.StepsPerMM) {
			if perr := check("slide "+dir.String(), pt); perr != nil {
				err = multierr.Append(err, perr)
				break
			}
		}
	}
	return err
}
