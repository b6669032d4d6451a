package logging

import (
	"os"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// NopLogger discards all log output.
//
// Used as the default when no logger is configured, so components never
// need nil checks around logging calls.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a logger that discards everything except Fatal's exit.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (*NopLogger) Debug(string, ...any) {}

// Info discards the message.
func (*NopLogger) Info(string, ...any) {}

// Warn discards the message.
func (*NopLogger) Warn(string, ...any) {}

// Error discards the message.
func (*NopLogger) Error(string, ...any) {}

// Fatal exits without logging. The exit is kept so Fatal semantics do
// not silently change when the nop logger is installed.
func (*NopLogger) Fatal(string, ...any) {
	os.Exit(1) //nolint:revive // Fatal should exit the program
}
