// Package sim is a servo backend that logs writes instead of moving hardware.
// It tracks the arm angles and reports where the tip would be.
package sim

import (
	"sync"

	"go.uber.org/zap"

	"scarastylus/core"
	"scarastylus/scara"
	"scarastylus/scara/kinematics"
)

// Driver implements core.ServoDriver on top of a RecordingDriver
type Driver struct {
	*core.RecordingDriver

	logger *zap.Logger
	kin    kinematics.Kinematics
	servos scara.Servos

	mu  sync.Mutex
	tip scara.Point
	ok  bool
}

// New creates a simulated backend. kin may be nil to skip tip tracking.
func New(logger *zap.Logger, kin kinematics.Kinematics, servos scara.Servos) *Driver {
	return &Driver{
		RecordingDriver: core.NewRecordingDriver(),
		logger:          logger,
		kin:             kin,
		servos:          servos,
	}
}

// WriteAngle records and logs the write along with its pulse width
func (d *Driver) WriteAngle(ch core.ServoChannel, degrees float64) error {
	if err := d.RecordingDriver.WriteAngle(ch, degrees); err != nil {
		return err
	}

	d.logger.Debug("servo write",
		zap.Stringer("channel", ch),
		zap.Float64("degrees", degrees),
		zap.Uint32("pulse_us", d.servos.Get(ch).PulseWidth(degrees)),
	)

	if ch != core.ServoLift {
		d.updateTip()
	}
	return nil
}

func (d *Driver) updateTip() {
	if d.kin == nil {
		return
	}
	left, okL := d.Last(core.ServoLeft)
	right, okR := d.Last(core.ServoRight)
	if !okL || !okR {
		return
	}

	tip, err := d.kin.Forward(scara.JointAngles{Left: left, Right: right})
	if err != nil {
		d.logger.Warn("arm pose has no tip position", zap.Error(err))
		return
	}

	d.mu.Lock()
	d.tip, d.ok = tip, true
	d.mu.Unlock()

	d.logger.Debug("tip", zap.Float64("x", tip.X), zap.Float64("y", tip.Y))
}

// Tip returns the tip position implied by the last arm angles
func (d *Driver) Tip() (scara.Point, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tip, d.ok
}
