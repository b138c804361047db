// Package client sends slide commands to a controller and waits for the
// acknowledgement byte
package client

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"scarastylus/host/serial"
	"scarastylus/protocol"
	"scarastylus/scara"
)

// ErrTimeout is returned when no acknowledgement arrives in time
var ErrTimeout = errors.New("timed out waiting for acknowledgement")

// ErrNotConnected is returned when the client has no open port
var ErrNotConnected = errors.New("not connected to controller")

// DefaultTimeout covers a full slide with margin
const DefaultTimeout = 5 * time.Second

// eofBackoff paces reads once a stream port reports io.EOF. Serial ports
// report EOF on every read timeout, so the reader keeps going.
const eofBackoff = 10 * time.Millisecond

// Client represents a connection to a stylus controller
type Client struct {
	port serial.Port

	// acknowledgements and stray bytes from the reader goroutine
	acks   chan struct{}
	stray  chan byte
	errs   chan error
	mu     sync.Mutex // serializes Send
	closed chan struct{}

	// late counts timed-out commands whose acks may still arrive; the
	// controller acks in order, so the next late acks belong to them
	late int

	// Connection state
	connected bool
}

// NewClient creates a client on an open port and starts its reader
func NewClient(port serial.Port) *Client {
	c := &Client{
		port:      port,
		acks:      make(chan struct{}, 16),
		stray:     make(chan byte, 16),
		errs:      make(chan error, 1),
		closed:    make(chan struct{}),
		connected: true,
	}
	go c.readLoop()
	return c
}

// Connect opens the device with the default link settings
func Connect(device string) (*Client, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a port with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return NewClient(port), nil
}

func (c *Client) readLoop() {
	buf := make([]byte, 32)
	for {
		n, err := c.port.Read(buf)
		for _, b := range buf[:n] {
			if b == protocol.ResponseOK {
				c.acks <- struct{}{}
				continue
			}
			select {
			case c.stray <- b:
			default: // drop when nobody is reading
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			select {
			case c.errs <- err:
			default:
			}
			return
		}
		if n == 0 && err != nil {
			select {
			case <-c.closed:
				return
			case <-time.After(eofBackoff):
			}
			continue
		}
		select {
		case <-c.closed:
			return
		default:
		}
	}
}

// Send writes a command byte and waits for its acknowledgement
func (c *Client) Send(cmd byte, timeout time.Duration) error {
	if !c.connected {
		return ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropStaleAcks()

	if err := protocol.WriteAll(c.port, []byte{cmd}); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-c.acks:
			if c.late > 0 {
				c.late--
				continue
			}
			return nil
		case err := <-c.errs:
			return fmt.Errorf("read failed: %w", err)
		case <-timer.C:
			c.late++
			return fmt.Errorf("command %q: %w", cmd, ErrTimeout)
		}
	}
}

// dropStaleAcks consumes acks already queued before a new command is sent.
// They answer earlier commands; acks beyond the late count were unsolicited.
func (c *Client) dropStaleAcks() {
	for {
		select {
		case <-c.acks:
			if c.late > 0 {
				c.late--
			}
		default:
			return
		}
	}
}

// Slide performs one slide gesture and waits for it to finish
func (c *Client) Slide(dir scara.SlideDirection, timeout time.Duration) error {
	return c.Send(dir.Byte(), timeout)
}

// Stray returns bytes received that were not acknowledgements
func (c *Client) Stray() <-chan byte {
	return c.stray
}

// Close closes the connection to the controller
func (c *Client) Close() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	close(c.closed)
	return c.port.Close()
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	return c.connected
}
