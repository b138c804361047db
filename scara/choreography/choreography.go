// Package choreography sequences a slide gesture: center, touch down,
// slide, lift and return to rest, with settle pauses between steps
package choreography

import (
	"time"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r2"

	"scarastylus/core"
	"scarastylus/scara"
)

// State is a step of the slide choreography
type State uint8

const (
	Idle State = iota
	Centering
	Descending
	Sliding
	Lifting
	Returning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Centering:
		return "centering"
	case Descending:
		return "descending"
	case Sliding:
		return "sliding"
	case Lifting:
		return "lifting"
	case Returning:
		return "returning"
	default:
		return "invalid"
	}
}

// Mover positions the stylus tip
type Mover interface {
	GoTo(target scara.Point) error
	LineTo(from, to scara.Point) error
	Position() scara.Point
}

// Actuator raises and lowers the stylus tip
type Actuator interface {
	Lift() error
	Descend() error
}

// Config holds the poses and pauses of the gesture
type Config struct {
	Center      scara.Point
	Rest        scara.Point
	SlideLength float64
	Settle      time.Duration
	LiftSettle  time.Duration
}

// ConfigFrom extracts the choreography settings from a machine config
func ConfigFrom(cfg *scara.Config) Config {
	return Config{
		Center:      cfg.Poses.Center,
		Rest:        cfg.Poses.Rest,
		SlideLength: cfg.Motion.SlideLength,
		Settle:      cfg.Timing.Settle,
		LiftSettle:  cfg.Timing.LiftSettle,
	}
}

// Result describes a finished run
type Result struct {
	Direction scara.SlideDirection
	Trace     []State // states entered, ending with Idle
	Err       error   // every step failure of the run, nil on success
}

// Choreography runs one slide at a time on the scheduler. All methods must
// be called from the goroutine that drives the scheduler.
type Choreography struct {
	cfg    Config
	sched  *core.Scheduler
	mover  Mover
	stylus Actuator
	debug  *core.Debug

	state State
	next  State
	timer core.Timer

	dir   scara.SlideDirection
	err   error
	trace []State
	done  func(Result)

	onTransition func(from, to State)
}

// New creates an idle choreography
func New(cfg Config, sched *core.Scheduler, mover Mover, stylus Actuator, debug *core.Debug) *Choreography {
	c := &Choreography{
		cfg:    cfg,
		sched:  sched,
		mover:  mover,
		stylus: stylus,
		debug:  debug,
		state:  Idle,
	}
	c.timer.Handler = c.fire
	return c
}

// State returns the current step
func (c *Choreography) State() State {
	return c.state
}

// Busy reports whether a run is in progress
func (c *Choreography) Busy() bool {
	return c.state != Idle
}

// OnTransition registers a callback invoked on every state change
func (c *Choreography) OnTransition(fn func(from, to State)) {
	c.onTransition = fn
}

// Start begins a slide in dir. The first step runs immediately; done is
// called once the run is back in Idle.
func (c *Choreography) Start(dir scara.SlideDirection, done func(Result)) error {
	if c.state != Idle {
		return scara.ErrBusy
	}

	c.dir = dir
	c.err = nil
	c.trace = nil
	c.done = done

	if wait, waiting := c.advance(Centering); waiting {
		c.timer.WakeTime = c.sched.Now().Add(wait)
		c.sched.ScheduleTimer(&c.timer)
	}
	return nil
}

// fire runs when a settle pause ends
func (c *Choreography) fire(t *core.Timer) uint8 {
	if wait, waiting := c.advance(c.next); waiting {
		t.WakeTime = t.WakeTime.Add(wait)
		return core.SF_RESCHEDULE
	}
	return core.SF_DONE
}

// advance runs states from s until one needs to settle or the run ends
func (c *Choreography) advance(s State) (time.Duration, bool) {
	for s != Idle {
		c.enter(s)
		next, wait := c.step(s)
		if wait > 0 {
			c.next = next
			return wait, true
		}
		s = next
	}

	c.enter(Idle)
	c.finish()
	return 0, false
}

// step performs the action of s and returns the following state and pause.
// A failed motion step skips ahead to Lifting so the tip never stays down.
func (c *Choreography) step(s State) (State, time.Duration) {
	switch s {
	case Centering:
		if err := c.mover.GoTo(c.cfg.Center); err != nil {
			c.fail(s, err)
			return Lifting, 0
		}
		return Descending, c.cfg.Settle

	case Descending:
		if err := c.stylus.Descend(); err != nil {
			c.fail(s, err)
			return Lifting, 0
		}
		return Sliding, c.cfg.Settle

	case Sliding:
		from := c.mover.Position()
		to := r2.Add(from, c.dir.Vector(c.cfg.SlideLength))
		if err := c.mover.LineTo(from, to); err != nil {
			c.fail(s, err)
			return Lifting, 0
		}
		return Lifting, c.cfg.Settle

	case Lifting:
		if err := c.stylus.Lift(); err != nil {
			c.fail(s, err)
		}
		return Returning, c.cfg.LiftSettle

	case Returning:
		if err := c.mover.GoTo(c.cfg.Rest); err != nil {
			c.fail(s, err)
		}
		return Idle, 0
	}
	return Idle, 0
}

func (c *Choreography) enter(s State) {
	from := c.state
	c.state = s
	c.trace = append(c.trace, s)
	c.debug.Record(core.MotionEvent{EventType: core.EvtStateEnter, Arg: uint8(s)})
	c.debug.Println("[SLIDE] " + c.dir.String() + ": " + s.String())
	if c.onTransition != nil {
		c.onTransition(from, s)
	}
}

func (c *Choreography) fail(s State, err error) {
	c.debug.Println("[SLIDE] " + s.String() + " failed: " + err.Error())
	c.err = multierr.Append(c.err, err)
}

func (c *Choreography) finish() {
	res := Result{
		Direction: c.dir,
		Trace:     c.trace,
		Err:       c.err,
	}
	done := c.done
	c.done = nil
	c.trace = nil
	if done != nil {
		done(res)
	}
}
