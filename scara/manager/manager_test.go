package manager

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarastylus/core"
	"scarastylus/protocol"
	"scarastylus/scara"
	"scarastylus/scara/choreography"
)

func newManager(t *testing.T) (*Manager, *clock.Mock, *core.RecordingDriver) {
	t.Helper()
	mock := clock.NewMock()
	driver := core.NewRecordingDriver()
	m, err := NewManager(scara.DefaultConfig(), driver, mock, core.NewDebug(nil))
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	return m, mock, driver
}

// step advances the clock by one poll period and polls
func step(t *testing.T, m *Manager, mock *clock.Mock) {
	t.Helper()
	mock.Add(10 * time.Millisecond)
	require.NoError(t, m.Poll())
}

// waitReady polls until the startup pause has elapsed
func waitReady(t *testing.T, m *Manager, mock *clock.Mock) {
	t.Helper()
	for i := 0; i < 100 && !m.Ready(); i++ {
		step(t, m, mock)
	}
	require.True(t, m.Ready())
}

// collect polls until n bytes of output have been produced
func collect(t *testing.T, m *Manager, mock *clock.Mock, n int) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < 2000 && len(out) < n; i++ {
		step(t, m, mock)
		out = append(out, m.GetOutput()...)
	}
	return out
}

func TestStartup(t *testing.T) {
	m, mock, driver := newManager(t)

	writes := driver.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, core.ServoRight, writes[0].Channel)
	assert.Equal(t, core.ServoLeft, writes[1].Channel)
	assert.Equal(t, core.ServoWrite{Channel: core.ServoLift, Degrees: 32}, writes[2])

	st := m.MotionState()
	assert.Equal(t, scara.Point{X: 32, Y: 130}, st.Position)
	assert.True(t, st.Lifted)

	// Bytes wait for the startup pause
	m.Feed([]byte{protocol.CmdSlideRight})
	mock.Add(190 * time.Millisecond)
	require.NoError(t, m.Poll())
	assert.False(t, m.Ready())
	assert.Equal(t, 1, m.Pending())

	mock.Add(10 * time.Millisecond)
	require.NoError(t, m.Poll())
	assert.True(t, m.Ready())
	assert.Equal(t, 0, m.Pending())
	assert.True(t, m.Busy())

	assert.Error(t, m.Initialize())
}

func TestSlideAck(t *testing.T) {
	m, mock, _ := newManager(t)
	waitReady(t, m, mock)

	var trace []choreography.State
	m.Choreography().OnTransition(func(_, to choreography.State) {
		trace = append(trace, to)
	})

	m.Feed([]byte{protocol.CmdSlideDown})
	out := collect(t, m, mock, 1)

	assert.Equal(t, []byte{protocol.ResponseOK}, out)
	assert.Equal(t, []choreography.State{
		choreography.Centering,
		choreography.Descending,
		choreography.Sliding,
		choreography.Lifting,
		choreography.Returning,
		choreography.Idle,
	}, trace)

	st := m.MotionState()
	assert.Equal(t, scara.Point{X: 32, Y: 130}, st.Position)
	assert.True(t, st.Lifted)
	assert.Equal(t, choreography.Idle, m.State())
	assert.NoError(t, m.LastResult().Err)
	assert.Equal(t, Stats{Commands: 1, Slides: 1}, m.Stats())
}

func TestUnknownByte(t *testing.T) {
	m, mock, driver := newManager(t)
	waitReady(t, m, mock)
	driver.Reset()

	transitions := 0
	m.Choreography().OnTransition(func(_, _ choreography.State) { transitions++ })

	m.Feed([]byte{'9'})
	step(t, m, mock)

	assert.Equal(t, []byte{protocol.ResponseOK}, m.GetOutput())
	assert.Zero(t, transitions)
	assert.Empty(t, driver.Writes())
	assert.Equal(t, Stats{Commands: 1, Unknown: 1}, m.Stats())

	// Nothing more to send
	step(t, m, mock)
	assert.Empty(t, m.GetOutput())
}

func TestOneAckPerByte(t *testing.T) {
	m, mock, _ := newManager(t)
	waitReady(t, m, mock)

	m.Feed([]byte("0x3"))
	out := collect(t, m, mock, 3)

	assert.Equal(t, "444", string(out))
	assert.Equal(t, Stats{Commands: 3, Slides: 2, Unknown: 1}, m.Stats())
	assert.Equal(t, scara.SlideUp, m.LastResult().Direction)
}

func TestWaitsForAckCollection(t *testing.T) {
	m, mock, _ := newManager(t)
	waitReady(t, m, mock)

	m.Feed([]byte("x0"))
	step(t, m, mock)

	// The first ack is still queued, so the slide must not start
	for i := 0; i < 5; i++ {
		step(t, m, mock)
	}
	assert.False(t, m.Busy())
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, []byte{protocol.ResponseOK}, m.GetOutput())
	step(t, m, mock)
	assert.True(t, m.Busy())
}

func TestDeterministic(t *testing.T) {
	run := func() ([]core.ServoWrite, []byte) {
		m, mock, driver := newManager(t)
		waitReady(t, m, mock)
		m.Feed([]byte("0123"))
		out := collect(t, m, mock, 4)
		return driver.Writes(), out
	}

	writesA, outA := run()
	writesB, outB := run()
	assert.Equal(t, writesA, writesB)
	assert.Equal(t, outA, outB)
	assert.Equal(t, "4444", string(outA))
}

func TestProcessByteBusy(t *testing.T) {
	m, mock, _ := newManager(t)
	assert.Error(t, m.ProcessByte('0'), "not ready yet")

	waitReady(t, m, mock)
	require.NoError(t, m.ProcessByte('0'))
	assert.ErrorIs(t, m.ProcessByte('1'), scara.ErrBusy)
}

func TestUnreachableSlideStillAcks(t *testing.T) {
	cfg := scara.DefaultConfig()
	cfg.Motion.SlideLength = 200
	mock := clock.NewMock()
	driver := core.NewRecordingDriver()
	m, err := NewManager(cfg, driver, mock, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	waitReady(t, m, mock)

	var results []choreography.Result
	m.OnResult(func(res choreography.Result) { results = append(results, res) })

	m.Feed([]byte{protocol.CmdSlideDown})
	out := collect(t, m, mock, 1)

	assert.Equal(t, "4", string(out))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, scara.ErrUnreachable)
	assert.Equal(t, uint32(1), m.Stats().Failures)

	st := m.MotionState()
	assert.Equal(t, scara.Point{X: 32, Y: 130}, st.Position)
	assert.True(t, st.Lifted)
}

func TestDictionary(t *testing.T) {
	m, _, _ := newManager(t)
	assert.Equal(t, "'0' slide_right\n'1' slide_down\n'2' slide_left\n'3' slide_up\n", m.Dictionary())
}

func TestNewManagerErrors(t *testing.T) {
	_, err := NewManager(nil, core.NewRecordingDriver(), nil, nil)
	assert.Error(t, err)

	_, err = NewManager(scara.DefaultConfig(), nil, nil, nil)
	assert.Error(t, err)

	cfg := scara.DefaultConfig()
	cfg.Geometry.L1 = 0
	_, err = NewManager(cfg, core.NewRecordingDriver(), nil, nil)
	assert.Error(t, err)
}
