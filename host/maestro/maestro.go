// Package maestro drives the arm servos through a Pololu Maestro USB servo
// controller, using its serial command protocol
package maestro

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"scarastylus/core"
	"scarastylus/scara"
)

const (
	cmdSetTarget       = 0x84
	cmdSetSpeed        = 0x87
	cmdSetAcceleration = 0x89
	cmdGetErrors       = 0xa1
	cmdGoHome          = 0xa2

	pololuStart = 0xaa
)

// DefaultDevice is the factory device number used by the Pololu protocol
const DefaultDevice = 12

// errorBits names the bits of the Get Errors response
var errorBits = []string{
	"serial signal error",          // bit 0
	"serial overrun error",         // bit 1
	"serial buffer full",           // bit 2
	"serial crc error",             // bit 3
	"serial protocol error",        // bit 4
	"serial timeout",               // bit 5
	"script stack error",           // bit 6
	"script call stack error",      // bit 7
	"script program counter error", // bit 8
}

// DecodeErrors converts an error bitmap into an error, nil when clear
func DecodeErrors(val uint16) error {
	var s []string
	for i, name := range errorBits {
		if val&(1<<i) != 0 {
			s = append(s, name)
		}
	}
	if len(s) == 0 {
		return nil
	}
	return errors.New("maestro: " + strings.Join(s, ","))
}

// Controller is a Maestro on a serial link. It implements core.ServoDriver,
// mapping each servo channel to the Maestro channel given by its pin.
type Controller struct {
	mu      sync.Mutex
	port    io.ReadWriter
	device  uint8
	compact bool // single device on the bus

	channels [core.NumServos]uint8
	ranges   [core.NumServos]core.PulseRange
}

// NewController creates a controller for the servos in cfg. With compact
// set the device number is ignored.
func NewController(port io.ReadWriter, servos scara.Servos, device uint8, compact bool) *Controller {
	c := &Controller{
		port:    port,
		device:  device,
		compact: compact,
	}
	for ch := core.ServoLeft; ch < core.NumServos; ch++ {
		s := servos.Get(ch)
		c.channels[ch] = s.Pin
		c.ranges[ch] = s.PulseRange
	}
	return c
}

func (c *Controller) preamble(command uint8) []byte {
	if c.compact {
		return []byte{command}
	}
	return []byte{pololuStart, c.device, command & 0x7f}
}

func lo(x uint16) byte {
	return byte(x & 0x7f)
}

func hi(x uint16) byte {
	return byte((x >> 7) & 0x7f)
}

func (c *Controller) send(cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.port.Write(cmd); err != nil {
		return fmt.Errorf("maestro write: %w", err)
	}
	return nil
}

// WriteAngle converts degrees to a pulse width and sets the channel target
func (c *Controller) WriteAngle(ch core.ServoChannel, degrees float64) error {
	if ch >= core.NumServos {
		return core.ErrBadChannel
	}
	us := c.ranges[ch].PulseWidth(degrees)
	return c.SetTarget(c.channels[ch], uint16(us*4))
}

// SetTarget sets a channel target in quarter microseconds
func (c *Controller) SetTarget(channel uint8, target uint16) error {
	cmd := append(c.preamble(cmdSetTarget), channel, lo(target), hi(target))
	return c.send(cmd)
}

// SetSpeed limits how fast a channel moves, 0 for unlimited
func (c *Controller) SetSpeed(channel uint8, speed uint16) error {
	cmd := append(c.preamble(cmdSetSpeed), channel, lo(speed), hi(speed))
	return c.send(cmd)
}

// SetAcceleration limits a channel's acceleration, 0 for unlimited
func (c *Controller) SetAcceleration(channel uint8, accel uint16) error {
	cmd := append(c.preamble(cmdSetAcceleration), channel, lo(accel), hi(accel))
	return c.send(cmd)
}

// GoHome sends all channels to their home positions
func (c *Controller) GoHome() error {
	return c.send(c.preamble(cmdGoHome))
}

// GetErrors reads and clears the controller error register
func (c *Controller) GetErrors() (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.port.Write(c.preamble(cmdGetErrors)); err != nil {
		return 0, fmt.Errorf("maestro write: %w", err)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(c.port, buf); err != nil {
		return 0, fmt.Errorf("maestro read: %w", err)
	}
	return (uint16(buf[0]) & 0x7f) + (uint16(buf[1])&0x7f)<<8, nil
}

// Check returns the controller's pending errors, if any
func (c *Controller) Check() error {
	val, err := c.GetErrors()
	if err != nil {
		return err
	}
	return DecodeErrors(val)
}
