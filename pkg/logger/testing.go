package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *Logger {
	return &Logger{zap.NewNop()}
}

// NewTestLoggerWithT creates a test logger that writes to testing.T
func NewTestLoggerWithT(t testing.TB) *Logger {
	return &Logger{zaptest.NewLogger(t)}
}
