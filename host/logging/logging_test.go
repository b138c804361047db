package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"scarastylus/host/logging/loggingtest"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("scara", "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("scara", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("scara", "loud")
	assert.Error(t, err)
}

func TestDebugWriter(t *testing.T) {
	logger, logs := loggingtest.NewObservedTestLogger(t)
	write := DebugWriter(logger)

	write("[SLIDE] right: centering")
	write("plain message")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "right: centering", entries[0].Message)
	assert.Equal(t, "slide", entries[0].ContextMap()["component"])
	assert.Equal(t, "plain message", entries[1].Message)
	assert.Empty(t, entries[1].ContextMap())
}
