package daemon

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarastylus/core"
	"scarastylus/host/logging/loggingtest"
	"scarastylus/host/serial"
	"scarastylus/scara"
	"scarastylus/scara/manager"
)

func fastConfig() *scara.Config {
	cfg := scara.DefaultConfig()
	cfg.Timing.Settle = 0
	cfg.Timing.LiftSettle = 0
	cfg.Timing.Startup = 0
	return cfg
}

func newManager(t *testing.T, cfg *scara.Config) (*manager.Manager, *core.RecordingDriver) {
	t.Helper()
	driver := core.NewRecordingDriver()
	m, err := manager.NewManager(cfg, driver, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	return m, driver
}

func TestRunUntilEOF(t *testing.T) {
	logger, logs := loggingtest.NewObservedTestLogger(t)
	m, _ := newManager(t, fastConfig())

	var out bytes.Buffer
	port := serial.NewStreamPort(strings.NewReader("09"), &out)
	d := New(logger, port, m, Options{Poll: time.Millisecond, ExitOnEOF: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, "44", out.String())
	assert.Equal(t, manager.Stats{Commands: 2, Slides: 1, Unknown: 1}, m.Stats())
	assert.Len(t, logs.FilterMessage("slide done").All(), 1)

	st := m.MotionState()
	assert.Equal(t, scara.Point{X: 32, Y: 130}, st.Position)
	assert.True(t, st.Lifted)
}

func TestRunLogsFailure(t *testing.T) {
	logger, logs := loggingtest.NewObservedTestLogger(t)
	cfg := fastConfig()
	cfg.Motion.SlideLength = 200
	m, _ := newManager(t, cfg)

	var out bytes.Buffer
	port := serial.NewStreamPort(strings.NewReader("1"), &out)
	d := New(logger, port, m, Options{Poll: time.Millisecond, ExitOnEOF: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, "4", out.String())
	failed := logs.FilterMessage("slide failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "down", failed[0].ContextMap()["direction"])
}

// blockingPort never returns data until closed
type blockingPort struct {
	closed chan struct{}
	out    bytes.Buffer
}

func (p *blockingPort) Read(b []byte) (int, error) {
	<-p.closed
	return 0, errors.New("port closed")
}
func (p *blockingPort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *blockingPort) Flush() error                { return nil }
func (p *blockingPort) Close() error {
	close(p.closed)
	return nil
}

func TestRunCancel(t *testing.T) {
	logger, _ := loggingtest.NewObservedTestLogger(t)
	m, _ := newManager(t, fastConfig())
	port := &blockingPort{closed: make(chan struct{})}
	d := New(logger, port, m, Options{Poll: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

type failingPort struct{ serial.Port }

func (failingPort) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (failingPort) Close() error             { return nil }

func TestRunReadError(t *testing.T) {
	logger, _ := loggingtest.NewObservedTestLogger(t)
	m, _ := newManager(t, fastConfig())
	d := New(logger, failingPort{}, m, Options{Poll: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorIs(t, d.Run(ctx), io.ErrUnexpectedEOF)
}
