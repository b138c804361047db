//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"github.com/benbjohnson/clock"

	"scarastylus/core"
	"scarastylus/protocol"
	"scarastylus/scara"
	"scarastylus/scara/manager"
	"scarastylus/targets/pio"
)

// servoBackend is a core.ServoDriver that must be serviced from the main loop
type servoBackend interface {
	core.ServoDriver
	Refresh()
}

var (
	mgr    *manager.Manager
	driver servoBackend
	debug  *core.Debug

	// Acks leave through here; no byte is consumed while one is unsent
	acks protocol.AckQueue

	// Debug counters
	bytesReceived uint32
	bytesDropped  uint32
	pollErrors    uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	cfg := scara.DefaultConfig()

	// Output stays off: the USB link carries nothing but acknowledgements.
	// The event ring is recorded regardless.
	debug = core.NewDebug(nil)

	driver, err = newServoBackend(cfg.Servos)
	if err != nil {
		halt()
	}

	mgr, err = manager.NewManager(cfg, driver, clock.New(), debug)
	if err != nil {
		halt()
	}
	if err := mgr.Initialize(); err != nil {
		halt()
	}

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Keep serving; queued acks are retried
					pollErrors++
				}
			}()

			readUSB()
			if !acks.Busy() {
				poll()
			}
			acks.Pump(mgr.GetOutput, USBWriteBytes)
			driver.Refresh()
		}()

		time.Sleep(100 * time.Microsecond)
	}
}

func newServoBackend(cfg scara.Servos) (servoBackend, error) {
	if !GetMode().PIOServos {
		return NewPWMServoDriver(cfg)
	}

	d, err := pio.NewServoDriver()
	if err != nil {
		return nil, err
	}
	for ch := core.ServoChannel(0); ch < core.NumServos; ch++ {
		sc := cfg.Get(ch)
		if err := d.Attach(ch, sc.Pin, sc.PulseRange); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// readUSB moves every byte the USB stack has buffered into the manager
func readUSB() {
	for USBAvailable() > 0 {
		data, err := USBRead()
		if err != nil {
			return
		}
		bytesReceived++
		if mgr.Feed([]byte{data}) == 0 {
			bytesDropped++
		}
	}
}

// poll runs the manager once. Errors are counted and kept in the event ring
// for a later dump; the link only ever carries acks.
func poll() {
	if err := mgr.Poll(); err != nil {
		pollErrors++
		debug.Record(core.MotionEvent{EventType: core.EvtError})
	}
}

// halt parks the firmware with the servos untouched
func halt() {
	for {
		time.Sleep(time.Second)
	}
}
