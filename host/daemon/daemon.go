// Package daemon runs a manager against a byte-stream port on the host
package daemon

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scarastylus/protocol"
	"scarastylus/scara/choreography"
	"scarastylus/scara/manager"
)

// errInputDone ends the poll loop once all input has been handled
var errInputDone = errors.New("input exhausted")

// Options configure a Daemon
type Options struct {
	// Poll is the manager poll period
	Poll time.Duration

	// ExitOnEOF stops the daemon when the port reports io.EOF and every
	// received byte has been acknowledged. Otherwise io.EOF is treated as a
	// read timeout, as serial ports report it.
	ExitOnEOF bool

	// Clock drives the poll ticker; wall clock when nil
	Clock clock.Clock
}

// Daemon moves bytes between a port and a manager
type Daemon struct {
	logger *zap.Logger
	port   protocol.Port
	mgr    *manager.Manager
	opts   Options
}

// New creates a daemon. The manager must already be initialized.
func New(logger *zap.Logger, port protocol.Port, mgr *manager.Manager, opts Options) *Daemon {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Poll <= 0 {
		opts.Poll = 10 * time.Millisecond
	}

	d := &Daemon{
		logger: logger,
		port:   port,
		mgr:    mgr,
		opts:   opts,
	}
	mgr.OnResult(d.logResult)
	return d
}

// Run serves the port until ctx is cancelled, the reader fails, or input
// ends with ExitOnEOF set
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	rx := make(chan []byte, 16)

	g.Go(func() error {
		return d.readLoop(ctx, rx)
	})
	g.Go(func() error {
		return d.pollLoop(ctx, rx)
	})
	g.Go(func() error {
		// Unblock a pending Read on shutdown
		<-ctx.Done()
		return d.port.Close()
	})

	err := g.Wait()
	if errors.Is(err, errInputDone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Daemon) readLoop(ctx context.Context, rx chan<- []byte) error {
	defer close(rx)
	buf := make([]byte, protocol.InputMax)

	for {
		n, err := d.port.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case rx <- data:
			case <-ctx.Done():
				return nil
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && !d.opts.ExitOnEOF:
			// Serial read timeout
		case errors.Is(err, io.EOF):
			d.logger.Debug("input closed")
			return nil
		default:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (d *Daemon) pollLoop(ctx context.Context, rx <-chan []byte) error {
	ticker := d.opts.Clock.Ticker(d.opts.Poll)
	defer ticker.Stop()

	var backlog []byte
	eof := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case data, ok := <-rx:
			if !ok {
				rx = nil
				eof = true
				continue
			}
			backlog = append(backlog, data...)

		case <-ticker.C:
		}

		if len(backlog) > 0 {
			n := d.mgr.Feed(backlog)
			backlog = backlog[n:]
		}

		if err := d.mgr.Poll(); err != nil {
			d.logger.Warn("poll", zap.Error(err))
		}

		if out := d.mgr.GetOutput(); len(out) > 0 {
			if err := protocol.WriteAll(d.port, out); err != nil {
				return err
			}
		}

		if eof && len(backlog) == 0 && d.mgr.Pending() == 0 && d.mgr.Ready() && !d.mgr.Busy() {
			return errInputDone
		}
	}
}

func (d *Daemon) logResult(res choreography.Result) {
	if res.Err != nil {
		d.logger.Warn("slide failed",
			zap.Stringer("direction", res.Direction),
			zap.Int("states", len(res.Trace)),
			zap.Error(res.Err),
		)
		return
	}
	d.logger.Info("slide done", zap.Stringer("direction", res.Direction))
}
