package logger

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger
type Logger struct {
	*zap.Logger
}

// Options controls how a Logger is built
type Options struct {
	Level       string
	ColorLogs   bool
	DisableLogs bool
	TimeFormat  string
}

// New creates a new logger instance
func New(opts Options) (*Logger, error) {
	if opts.DisableLogs {
		return &Logger{zap.NewNop()}, nil
	}

	var config zap.Config
	if opts.ColorLogs {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	// Set time format
	switch opts.TimeFormat {
	case "kitchen":
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("3:04PM")
	case "rfc3339":
		config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	case "rfc3339nano":
		config.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	default:
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// Always output to stdout
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{zapLogger}, nil
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

// Named creates a child logger for a component
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

// StdLogger returns a standard library logger that writes at error level.
// Used by net/http and promhttp, which only accept *log.Logger.
func (l *Logger) StdLogger() *log.Logger {
	std, err := zap.NewStdLogAt(l.Logger, zapcore.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(l.Logger)
	}
	return std
}
