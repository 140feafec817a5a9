// Package logging builds the zap logger used across coinfav.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger level and destination.
type Options struct {
	Level string
	// File, when set, receives the log output in append mode.
	File string
	// Output is used when File is empty. A nil Output yields a no-op logger.
	Output io.Writer
}

// New builds a logger from opts. The returned close function flushes and
// releases the destination.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var sink zapcore.WriteSyncer
	closer := func() {}

	switch {
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closer = func() { _ = f.Close() }
	case opts.Output != nil:
		sink = zapcore.AddSync(opts.Output)
	default:
		return zap.NewNop(), closer, nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	logger := zap.New(core)

	return logger, func() {
		_ = logger.Sync()
		closer()
	}, nil
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
