// Package logging builds the zap loggers used by the host binaries
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scarastylus/core"
)

// NewLoggerConfig returns a console config without stacktraces and with
// colored levels. Logs go to stderr so stdout stays free for the byte channel.
func NewLoggerConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger builds a named logger at the given level ("debug", "info", ...)
func NewLogger(name, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := NewLoggerConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}

// DebugWriter routes core debug output to logger at debug level. The
// "[TAG] " prefix used by core messages becomes a "component" field.
func DebugWriter(logger *zap.Logger) core.DebugWriter {
	return func(msg string) {
		if strings.HasPrefix(msg, "[") {
			if end := strings.Index(msg, "] "); end > 0 {
				logger.Debug(msg[end+2:], zap.String("component", strings.ToLower(msg[1:end])))
				return
			}
		}
		logger.Debug(msg)
	}
}
