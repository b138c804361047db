package stylus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarastylus/core"
	"scarastylus/scara"
)

func newStylus(lifted bool) (*Stylus, *core.RecordingDriver) {
	driver := core.NewRecordingDriver()
	state := &scara.MotionState{Lifted: lifted}
	return New(driver, state, scara.DefaultConfig().Poses, nil), driver
}

func TestLiftIdempotent(t *testing.T) {
	s, driver := newStylus(false)

	require.NoError(t, s.Lift())
	require.NoError(t, s.Lift())

	writes := driver.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, core.ServoLift, writes[0].Channel)
	assert.Equal(t, 32.0, writes[0].Degrees)
	assert.True(t, s.Lifted())
}

func TestDescendIdempotent(t *testing.T) {
	s, driver := newStylus(true)

	require.NoError(t, s.Descend())
	require.NoError(t, s.Descend())

	writes := driver.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, 10.0, writes[0].Degrees)
	assert.False(t, s.Lifted())
}

func TestAlternating(t *testing.T) {
	s, driver := newStylus(true)

	require.NoError(t, s.Descend())
	require.NoError(t, s.Lift())
	require.NoError(t, s.Descend())

	assert.Len(t, driver.Writes(), 3)
}

func TestLiftDriverError(t *testing.T) {
	s, driver := newStylus(false)
	boom := errors.New("boom")
	driver.FailOn = map[core.ServoChannel]error{core.ServoLift: boom}

	assert.ErrorIs(t, s.Lift(), boom)
	assert.False(t, s.Lifted())
}
