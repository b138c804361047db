package serial

import (
	"io"

	"scarastylus/protocol"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Standard input/output, for piping commands in
// - Mock serial (for testing)
type Port = protocol.Port

// StdioDevice selects standard input/output instead of a device
const StdioDevice = "-"

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3") or "-" for stdio
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the default link configuration
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        protocol.DefaultBaud,
		ReadTimeout: 100, // 100ms read timeout
	}
}

// stdioPort joins a reader and a writer into a Port
type stdioPort struct {
	r io.Reader
	w io.Writer
}

// NewStreamPort wraps a reader/writer pair. Close is a no-op.
func NewStreamPort(r io.Reader, w io.Writer) Port {
	return &stdioPort{r: r, w: w}
}

func (p *stdioPort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *stdioPort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *stdioPort) Close() error                { return nil }

// Flush flushes buffered writers such as bufio.Writer
func (p *stdioPort) Flush() error {
	if f, ok := p.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
