package logger

import (
	"context"
)

// Logger defines the interface for structured logging throughout the mapping layer.
// All log methods accept a message string followed by key-value pairs for structured fields.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info-level message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning-level message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error-level message with optional key-value pairs
	Error(msg string, args ...any)

	// With creates a child logger with additional key-value pairs that will be
	// included in all subsequent log entries
	With(args ...any) Logger

	// WithContext creates a child logger that extracts the operation ID from context
	WithContext(ctx context.Context) Logger
}

// NopLogger discards every log entry. Useful as a default in tests and for
// callers that opt out of logging.
type NopLogger struct{}

// NewNop returns a logger that discards all entries.
func NewNop() Logger {
	return NopLogger{}
}

// Debug discards the entry.
func (NopLogger) Debug(msg string, args ...any) {}

// Info discards the entry.
func (NopLogger) Info(msg string, args ...any) {}

// Warn discards the entry.
func (NopLogger) Warn(msg string, args ...any) {}

// Error discards the entry.
func (NopLogger) Error(msg string, args ...any) {}

// With returns the logger unchanged.
func (l NopLogger) With(args ...any) Logger { return l }

// WithContext returns the logger unchanged.
func (l NopLogger) WithContext(ctx context.Context) Logger { return l }
