// Package logging builds the session logger. The terminal belongs to the
// console, so records only go to the session log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Path is the JSON log file; parent directories are created.
	Path string
	// Level is a zap level name; empty means info.
	Level string
	// Disabled discards every record.
	Disabled bool
	Session  string
	Backend  string
}

// New creates a zap logger that appends JSON to opts.Path. Session name,
// backend and PID are included as initial fields.
func New(opts Options) (*zap.Logger, error) {
	if opts.Disabled {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level)

	logger := zap.New(core,
		zap.Fields(
			zap.String("session", opts.Session),
			zap.String("backend", opts.Backend),
			zap.Int("pid", os.Getpid()),
		),
	)
	return logger, nil
}
