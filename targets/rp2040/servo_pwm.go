//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/servo"

	"scarastylus/core"
	"scarastylus/scara"
)

// PWMServoDriver drives the servos from the RP2040 hardware PWM slices.
// GPIO pin N belongs to slice (N>>1)&7; servos sharing a slice share one
// servo.Array so the 20ms period is configured once.
type PWMServoDriver struct {
	servos [core.NumServos]servo.Servo
	ranges [core.NumServos]core.PulseRange

	// Key: slice number (0-7)
	arrays map[uint8]servo.Array
}

// NewPWMServoDriver configures one PWM channel per servo pin in cfg
func NewPWMServoDriver(cfg scara.Servos) (*PWMServoDriver, error) {
	d := &PWMServoDriver{
		arrays: make(map[uint8]servo.Array),
	}

	for ch := core.ServoChannel(0); ch < core.NumServos; ch++ {
		sc := cfg.Get(ch)
		pin := machine.Pin(sc.Pin)
		sliceNum := (sc.Pin >> 1) & 0x7

		array, ok := d.arrays[sliceNum]
		if !ok {
			var err error
			array, err = servo.NewArray(pwmPeripheral(sliceNum))
			if err != nil {
				return nil, err
			}
			d.arrays[sliceNum] = array
		}

		s, err := array.Add(pin)
		if err != nil {
			return nil, err
		}
		d.servos[ch] = s
		d.ranges[ch] = sc.PulseRange
	}

	return d, nil
}

// WriteAngle implements core.ServoDriver
func (d *PWMServoDriver) WriteAngle(ch core.ServoChannel, degrees float64) error {
	if ch >= core.NumServos {
		return core.ErrBadChannel
	}
	d.servos[ch].SetMicroseconds(int16(d.ranges[ch].PulseWidth(degrees)))
	return nil
}

// Refresh is a no-op: the PWM slices repeat the pulse on their own
func (d *PWMServoDriver) Refresh() {}

// pwmPeripheral returns the PWM peripheral for a given slice number.
// TinyGo defines PWM0-PWM7 as globals of an unexported type; servo.PWM covers
// the methods we need.
func pwmPeripheral(sliceNum uint8) servo.PWM {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
