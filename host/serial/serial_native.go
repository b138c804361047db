//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tarm/serial"
)

// NativePort is a device opened through tarm/serial
type NativePort struct {
	*serial.Port
	Device string
}

// Open opens the configured device, or stdio when the device is "-"
func Open(cfg *Config) (Port, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config cannot be nil")
	case cfg.Device == "":
		return nil, errors.New("serial device is empty")
	case cfg.Device == StdioDevice:
		return NewStreamPort(os.Stdin, os.Stdout), nil
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{Port: port, Device: cfg.Device}, nil
}

// Flush overrides serial.Port.Flush, which discards unread input instead of
// draining output. Writes are already synchronous.
func (p *NativePort) Flush() error {
	return nil
}
