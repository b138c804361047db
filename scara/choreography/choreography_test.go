package choreography

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarastylus/core"
	"scarastylus/scara"
	"scarastylus/scara/kinematics"
	"scarastylus/scara/planner"
	"scarastylus/scara/stylus"
)

type rig struct {
	mock   *clock.Mock
	sched  *core.Scheduler
	state  *scara.MotionState
	driver *core.RecordingDriver
	plan   *planner.Planner
	chor   *Choreography
}

func newRig(t *testing.T, mutate func(*scara.Config)) *rig {
	t.Helper()
	cfg := scara.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	kin, err := kinematics.NewFiveBar(cfg.Geometry)
	require.NoError(t, err)

	mock := clock.NewMock()
	sched := core.NewScheduler(mock)
	state := &scara.MotionState{Position: cfg.Poses.Rest, Lifted: true}
	driver := core.NewRecordingDriver()
	plan := planner.NewPlanner(kin, driver, state, cfg.Motion.StepsPerMM, nil)
	tip := stylus.New(driver, state, cfg.Poses, nil)

	return &rig{
		mock:   mock,
		sched:  sched,
		state:  state,
		driver: driver,
		plan:   plan,
		chor:   New(ConfigFrom(cfg), sched, plan, tip, nil),
	}
}

// run advances the mock clock in poll-sized steps until the run completes
func (r *rig) run(t *testing.T, dir scara.SlideDirection) (Result, time.Duration) {
	t.Helper()
	var res *Result
	start := r.mock.Now()
	require.NoError(t, r.chor.Start(dir, func(got Result) { res = &got }))

	for i := 0; i < 1000 && res == nil; i++ {
		r.mock.Add(10 * time.Millisecond)
		r.sched.ProcessTimers()
	}
	require.NotNil(t, res, "choreography never finished")
	return *res, r.mock.Now().Sub(start)
}

var fullTrace = []State{Centering, Descending, Sliding, Lifting, Returning, Idle}

func TestSlideTrace(t *testing.T) {
	r := newRig(t, nil)

	res, elapsed := r.run(t, scara.SlideRight)
	require.NoError(t, res.Err)
	assert.Equal(t, fullTrace, res.Trace)
	assert.Equal(t, scara.SlideRight, res.Direction)
	assert.Equal(t, 900*time.Millisecond, elapsed)

	assert.Equal(t, Idle, r.chor.State())
	assert.False(t, r.chor.Busy())
	assert.Equal(t, scara.Point{X: 32, Y: 130}, r.state.Position)
	assert.True(t, r.state.Lifted)
}

func TestSlideDeterministic(t *testing.T) {
	a := newRig(t, nil)
	b := newRig(t, nil)

	resA, _ := a.run(t, scara.SlideUp)
	resB, _ := b.run(t, scara.SlideUp)

	assert.Equal(t, resA.Trace, resB.Trace)
	assert.Equal(t, a.driver.Writes(), b.driver.Writes())
}

func TestSlideEndpoints(t *testing.T) {
	expected := map[scara.SlideDirection]scara.Point{
		scara.SlideRight: {X: 15, Y: 165},
		scara.SlideDown:  {X: 30, Y: 150},
		scara.SlideLeft:  {X: 15, Y: 135},
		scara.SlideUp:    {X: 0, Y: 150},
	}

	for dir, want := range expected {
		t.Run(dir.String(), func(t *testing.T) {
			r := newRig(t, nil)

			var atLift scara.Point
			var liftedWhileSliding bool
			r.chor.OnTransition(func(from, to State) {
				if to == Lifting {
					atLift = r.state.Position
				}
				if from == Sliding {
					liftedWhileSliding = r.state.Lifted
				}
			})

			res, _ := r.run(t, dir)
			require.NoError(t, res.Err)
			assert.Equal(t, want, atLift)
			assert.False(t, liftedWhileSliding)
		})
	}
}

func TestSettleTiming(t *testing.T) {
	r := newRig(t, nil)

	var entered []time.Duration
	start := r.mock.Now()
	r.chor.OnTransition(func(_, _ State) {
		entered = append(entered, r.mock.Now().Sub(start))
	})

	r.run(t, scara.SlideDown)
	assert.Equal(t, []time.Duration{
		0,                      // centering
		200 * time.Millisecond, // descending
		400 * time.Millisecond, // sliding
		600 * time.Millisecond, // lifting
		900 * time.Millisecond, // returning
		900 * time.Millisecond, // idle
	}, entered)
}

func TestStartBusy(t *testing.T) {
	r := newRig(t, nil)

	require.NoError(t, r.chor.Start(scara.SlideLeft, nil))
	assert.True(t, r.chor.Busy())
	assert.Equal(t, Centering, r.chor.State())
	assert.ErrorIs(t, r.chor.Start(scara.SlideRight, nil), scara.ErrBusy)
}

func TestUnreachableCenter(t *testing.T) {
	r := newRig(t, func(cfg *scara.Config) {
		cfg.Poses.Center = scara.Point{X: 500, Y: 500}
	})

	res, _ := r.run(t, scara.SlideRight)
	assert.ErrorIs(t, res.Err, scara.ErrUnreachable)
	assert.Equal(t, []State{Centering, Lifting, Returning, Idle}, res.Trace)

	// The tip never went down
	for _, w := range r.driver.Writes() {
		assert.NotEqual(t, core.ServoLift, w.Channel)
	}
	assert.Equal(t, scara.Point{X: 32, Y: 130}, r.state.Position)
	assert.True(t, r.state.Lifted)
}

func TestUnreachableSlide(t *testing.T) {
	r := newRig(t, func(cfg *scara.Config) {
		cfg.Motion.SlideLength = 200
	})

	res, _ := r.run(t, scara.SlideDown)
	assert.ErrorIs(t, res.Err, scara.ErrUnreachable)
	assert.Equal(t, fullTrace, res.Trace)
	assert.Equal(t, scara.Point{X: 32, Y: 130}, r.state.Position)
	assert.True(t, r.state.Lifted)
}

func TestUnreachableRest(t *testing.T) {
	r := newRig(t, func(cfg *scara.Config) {
		cfg.Poses.Rest = scara.Point{X: 500, Y: 500}
	})

	res, _ := r.run(t, scara.SlideLeft)
	assert.ErrorIs(t, res.Err, scara.ErrUnreachable)
	assert.Equal(t, fullTrace, res.Trace)
	assert.Equal(t, scara.Point{X: 15, Y: 135}, r.state.Position)
	assert.True(t, r.state.Lifted)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "returning", Returning.String())
	assert.Equal(t, "invalid", State(42).String())
}
