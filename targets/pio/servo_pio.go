//go:build rp2040 || rp2350

// Package pio generates servo pulses with the RP2040/RP2350 PIO blocks
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"scarastylus/core"
)

// PIO program for one servo frame per FIFO word
// Command word format:
//
//	Bits 0-15:  high count (pulse width - 2 µs)
//	Bits 16-31: low count (period - pulse width - 5 µs)
//
// With the state machine clocked at 1 MHz a frame lasts
// high+2 + low+5 = 20000 cycles.
func buildServoProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),        // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(), // 1: out x, 16 (high count)
		asm.Out(rp2pio.OutDestY, 16).Encode(), // 2: out y, 16 (low count)
		asm.Set(rp2pio.SetDestPins, 1).Encode(),
		// high_loop:
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, 4
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 5: set pins, 0
		// low_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		// .wrap
	}
}

const (
	servoPIOOrigin = 0 // Load at offset 0 for correct jump addresses
	smClockHz      = 1000000
	highOverhead   = 2
	lowOverhead    = 5
)

var errNoStateMachine = errors.New("pio: no free state machine")

// FrameWord encodes one 20ms servo frame with a pulse of us microseconds
func FrameWord(us uint32) uint32 {
	if us < highOverhead {
		us = highOverhead
	}
	if us > core.ServoPeriodUs-lowOverhead {
		us = core.ServoPeriodUs - lowOverhead
	}
	high := us - highOverhead
	low := core.ServoPeriodUs - us - lowOverhead
	return low<<16 | high
}

type servoSM struct {
	sm    rp2pio.StateMachine
	pin   machine.Pin
	pulse core.PulseRange
	word  uint32
}

// ServoDriver implements core.ServoDriver with one state machine per servo.
// The state machines stall on an empty FIFO, so Refresh must run at least
// every 80ms (four queued frames).
type ServoDriver struct {
	pio      *rp2pio.PIO
	offset   uint8
	channels [core.NumServos]*servoSM
}

// NewServoDriver loads the servo program into PIO0
func NewServoDriver() (*ServoDriver, error) {
	d := &ServoDriver{pio: rp2pio.PIO0}

	offset, err := d.pio.AddProgram(buildServoProgram(), servoPIOOrigin)
	if err != nil {
		return nil, err
	}
	d.offset = offset
	return d, nil
}

// Attach binds channel ch to pin and starts its state machine
func (d *ServoDriver) Attach(ch core.ServoChannel, pin uint8, pulse core.PulseRange) error {
	if ch >= core.NumServos {
		return core.ErrBadChannel
	}

	smNum := uint8(ch)
	sm := d.pio.StateMachine(smNum)
	if !sm.TryClaim() {
		return errNoStateMachine
	}

	s := &servoSM{
		sm:    sm,
		pin:   machine.Pin(pin),
		pulse: pulse,
		word:  FrameWord(pulse.PulseWidth((pulse.MinDeg + pulse.MaxDeg) / 2)),
	}
	s.pin.Configure(machine.PinConfig{Mode: d.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.pin, 1)
	// Shift right, autopull disabled (explicit PULL), 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(d.offset+uint8(len(buildServoProgram()))-1, d.offset)
	cfg.SetClkDivIntFrac(uint16(machine.CPUFrequency()/smClockHz), 0)

	sm.Init(d.offset, cfg)

	// Pin directions must be set after Init
	sm.SetPindirsConsecutive(s.pin, 1, true)
	sm.SetPinsConsecutive(s.pin, 1, false)

	d.channels[ch] = s
	d.fill(s)
	sm.SetEnabled(true)
	return nil
}

// WriteAngle implements core.ServoDriver. Queued frames with the old width
// are discarded.
func (d *ServoDriver) WriteAngle(ch core.ServoChannel, degrees float64) error {
	if ch >= core.NumServos || d.channels[ch] == nil {
		return core.ErrBadChannel
	}
	s := d.channels[ch]
	s.word = FrameWord(s.pulse.PulseWidth(degrees))
	s.sm.ClearFIFOs()
	d.fill(s)
	return nil
}

// Refresh tops up every FIFO with the current frame
func (d *ServoDriver) Refresh() {
	for _, s := range d.channels {
		if s != nil {
			d.fill(s)
		}
	}
}

func (d *ServoDriver) fill(s *servoSM) {
	for !s.sm.IsTxFIFOFull() {
		s.sm.TxPut(s.word)
	}
}
