// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink selects where log lines go when no file is configured.
type Sink int

const (
	// SinkDiscard drops log lines. The interactive chat owns stdout and
	// stderr, so it logs only to a file.
	SinkDiscard Sink = iota
	// SinkStderr writes to stderr. The MCP server owns stdout.
	SinkStderr
)

// Options configures New.
type Options struct {
	Level string
	// File enables rotated file output and takes precedence over Sink.
	File string
	Sink Sink
	// MaxSizeMB and MaxBackups bound the rotated file. Zero uses defaults.
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel maps a configured level to a zap level; unknown values are info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a JSON logger. The returned close function flushes and closes
// the output.
func New(opts Options) (*zap.Logger, func() error) {
	w, closer := output(opts)
	if w == nil {
		return zap.NewNop(), func() error { return nil }
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
	)
	logger := zap.New(core, zap.AddCaller()).Named("scout")
	return logger, func() error {
		_ = logger.Sync()
		if closer != nil {
			return closer.Close()
		}
		return nil
	}
}

func output(opts Options) (io.Writer, io.Closer) {
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		backups := opts.MaxBackups
		if backups <= 0 {
			backups = 3
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: backups,
			Compress:   true,
		}
		return lj, lj
	}
	if opts.Sink == SinkStderr {
		return os.Stderr, nil
	}
	return nil, nil
}
