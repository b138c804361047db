// Package protocol defines the single-byte serial protocol spoken between a
// host and the stylus controller
package protocol

// Version represents the firmware version
const Version = "0.1.0"

// Command bytes, one per slide direction
const (
	CmdSlideRight byte = '0'
	CmdSlideDown  byte = '1'
	CmdSlideLeft  byte = '2'
	CmdSlideUp    byte = '3'
)

// ResponseOK is written once for every command byte consumed, known or not
const ResponseOK byte = '4'

// Link constants
const (
	DefaultBaud = 9600
	MessageMax  = 64  // Output scratch size
	InputMax    = 128 // Input FIFO capacity
)

// IsSlideCommand reports whether b is one of the slide command bytes
func IsSlideCommand(b byte) bool {
	return b >= CmdSlideRight && b <= CmdSlideUp
}

// CommandName returns a short human name for a command byte
func CommandName(b byte) string {
	switch b {
	case CmdSlideRight:
		return "slide_right"
	case CmdSlideDown:
		return "slide_down"
	case CmdSlideLeft:
		return "slide_left"
	case CmdSlideUp:
		return "slide_up"
	default:
		return "unknown"
	}
}
