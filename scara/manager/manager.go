// Package manager ties the byte channel to the slide choreography
package manager

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"

	"scarastylus/core"
	"scarastylus/protocol"
	"scarastylus/scara"
	"scarastylus/scara/choreography"
	"scarastylus/scara/kinematics"
	"scarastylus/scara/planner"
	"scarastylus/scara/stylus"
)

// Stats counts processed commands
type Stats struct {
	Commands uint32 // bytes consumed
	Slides   uint32 // slides completed
	Unknown  uint32 // bytes with no command
	Failures uint32 // slides that reported an error
}

// Manager coordinates all machine components. It is driven by a single poll
// loop; none of its methods may be called concurrently.
type Manager struct {
	config *scara.Config
	driver core.ServoDriver
	sched  *core.Scheduler
	debug  *core.Debug

	registry   *core.CommandRegistry
	state      scara.MotionState
	kinematics kinematics.Kinematics
	planner    *planner.Planner
	stylus     *stylus.Stylus
	chor       *choreography.Choreography

	// Serial interface
	input  *protocol.FifoBuffer
	output *protocol.ScratchOutput

	// Status
	initialized bool
	ready       bool
	lastResult  choreography.Result
	stats       Stats
	onResult    func(choreography.Result)
}

// NewManager creates a manager for cfg. A nil clock uses wall time, a nil
// debug discards diagnostics.
func NewManager(cfg *scara.Config, driver core.ServoDriver, clk clock.Clock, debug *core.Debug) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if driver == nil {
		return nil, errors.New("servo driver is nil")
	}

	kin, err := kinematics.NewFiveBar(cfg.Geometry)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:     cfg,
		driver:     driver,
		sched:      core.NewScheduler(clk),
		debug:      debug,
		registry:   core.NewCommandRegistry(),
		kinematics: kin,
		input:      protocol.NewFifoBuffer(protocol.InputMax),
		output:     protocol.NewScratchOutput(),
	}
	debug.SetTimeSource(m.sched.Now)

	m.planner = planner.NewPlanner(kin, driver, &m.state, cfg.Motion.StepsPerMM, debug)
	m.stylus = stylus.New(driver, &m.state, cfg.Poses, debug)
	m.chor = choreography.New(choreography.ConfigFrom(cfg), m.sched, m.planner, m.stylus, debug)

	for _, dir := range scara.Directions {
		m.registry.Register(dir.Byte(), protocol.CommandName(dir.Byte()), func() error {
			return m.chor.Start(dir, m.slideDone)
		})
	}

	return m, nil
}

// Initialize moves to rest, lifts the stylus and starts the startup pause.
// Commands are accepted once the pause has elapsed.
func (m *Manager) Initialize() error {
	if m.initialized {
		return errors.New("already initialized")
	}

	if err := m.planner.GoTo(m.config.Poses.Rest); err != nil {
		return err
	}
	if err := m.stylus.Lift(); err != nil {
		return err
	}

	m.initialized = true
	m.sched.After(m.config.Timing.Startup, func(*core.Timer) uint8 {
		m.ready = true
		m.debug.Println("[MANAGER] ready")
		return core.SF_DONE
	})
	return nil
}

// Feed queues received bytes and returns how many fit in the input buffer
func (m *Manager) Feed(data []byte) int {
	return m.input.Write(data)
}

// Poll runs due timers, then takes at most one command byte. A byte is taken
// only when no slide is running and the previous acknowledgement has been
// collected with GetOutput.
func (m *Manager) Poll() error {
	m.sched.ProcessTimers()

	if !m.ready || m.chor.Busy() || !m.output.IsEmpty() {
		return nil
	}

	b, ok := m.input.ReadByte()
	if !ok {
		return nil
	}
	return m.ProcessByte(b)
}

// ProcessByte executes a single command byte. Unknown bytes are acknowledged
// without any motion. Slides are acknowledged when they finish.
func (m *Manager) ProcessByte(b byte) error {
	if !m.ready {
		return errors.New("manager not ready")
	}
	if m.chor.Busy() {
		return scara.ErrBusy
	}

	m.stats.Commands++
	m.debug.Record(core.MotionEvent{EventType: core.EvtCommand, Arg: b})

	err := m.registry.Dispatch(b)
	if errors.Is(err, scara.ErrUnknownCommand) {
		m.stats.Unknown++
		m.debug.Println("[MANAGER] " + err.Error())
		m.ack()
		return nil
	}
	return err
}

func (m *Manager) slideDone(res choreography.Result) {
	m.stats.Slides++
	if res.Err != nil {
		m.stats.Failures++
		m.debug.Println("[MANAGER] slide " + res.Direction.String() + " failed: " + res.Err.Error())
	}
	m.lastResult = res
	m.ack()
	if m.onResult != nil {
		m.onResult(res)
	}
}

func (m *Manager) ack() {
	m.output.Output([]byte{protocol.ResponseOK})
	m.debug.Record(core.MotionEvent{EventType: core.EvtAck, Arg: protocol.ResponseOK})
}

// GetOutput returns pending output bytes and clears the output buffer
func (m *Manager) GetOutput() []byte {
	return m.output.Drain()
}

// OnResult registers a callback invoked after every slide
func (m *Manager) OnResult(fn func(choreography.Result)) {
	m.onResult = fn
}

// Ready reports whether the startup pause has elapsed
func (m *Manager) Ready() bool {
	return m.ready
}

// Busy reports whether a slide is running
func (m *Manager) Busy() bool {
	return m.chor.Busy()
}

// State returns the choreography state
func (m *Manager) State() choreography.State {
	return m.chor.State()
}

// Choreography exposes the state machine, mainly to observe transitions
func (m *Manager) Choreography() *choreography.Choreography {
	return m.chor
}

// MotionState returns a copy of the current motion state
func (m *Manager) MotionState() scara.MotionState {
	return m.state
}

// LastResult returns the outcome of the most recent slide
func (m *Manager) LastResult() choreography.Result {
	return m.lastResult
}

// Stats returns the command counters
func (m *Manager) Stats() Stats {
	return m.stats
}

// Pending returns the number of buffered input bytes
func (m *Manager) Pending() int {
	return m.input.Available()
}

// NextWake returns when the next timer is due
func (m *Manager) NextWake() (time.Time, bool) {
	return m.sched.NextWake()
}

// Dictionary lists the registered command bytes
func (m *Manager) Dictionary() string {
	return m.registry.GetDictionary()
}

// Config returns the machine configuration
func (m *Manager) Config() *scara.Config {
	return m.config
}
