//go:build rp2040 || rp2350

package main

// ModeConfig selects how servo pulses are generated
type ModeConfig struct {
	// PIOServos drives every servo from its own PIO state machine instead of
	// the hardware PWM slices. Use it when two servo pins share a PWM slice
	// channel or the slices are needed elsewhere.
	PIOServos bool
}

// GetMode returns the current mode configuration.
// Change it here and reflash; there is no runtime switch.
func GetMode() ModeConfig {
	return ModeConfig{
		PIOServos: false,
	}
}
