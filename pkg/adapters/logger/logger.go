// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package logger defines the structured logging interface used throughout
// go-credstore, with adapters for log/slog and go.uber.org/zap.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Level represents the log level
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
	}
}

// Logger is the interface for logging adapters
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an informational message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)

	// DebugContext logs at debug level with the context's correlation ID
	DebugContext(ctx context.Context, msg string, fields ...Field)

	// InfoContext logs at info level with the context's correlation ID
	InfoContext(ctx context.Context, msg string, fields ...Field)

	// WarnContext logs at warn level with the context's correlation ID
	WarnContext(ctx context.Context, msg string, fields ...Field)

	// ErrorContext logs at error level with the context's correlation ID
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	// With creates a child logger with the given fields
	With(fields ...Field) Logger

	// WithError creates a child logger with an error field
	WithError(err error) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Strings creates a string slice field
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Driver names a logging adapter.
type Driver string

const (
	DriverSlog Driver = "slog"
	DriverZap  Driver = "zap"
)

// Config selects and configures an adapter.
type Config struct {
	Driver Driver
	Level  Level
	// Format is "text" or "json".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds the adapter named by cfg.Driver.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	switch cfg.Format {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	switch cfg.Driver {
	case DriverSlog, "":
		return NewSlogAdapter(&SlogConfig{
			Level:  cfg.Level,
			Format: cfg.Format,
			Output: out,
		}), nil
	case DriverZap:
		return NewZapAdapter(&ZapConfig{
			Level:  cfg.Level,
			Format: cfg.Format,
			Output: out,
		}), nil
	default:
		return nil, fmt.Errorf("logger: unknown driver %q", cfg.Driver)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

// NewNop returns a logger that discards all output.
func NewNop() Logger { return NopLogger{} }

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field) {}
func (NopLogger) Warn(string, ...Field) {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) DebugContext(context.Context, string, ...Field) {}
func (NopLogger) InfoContext(context.Context, string, ...Field) {}
func (NopLogger) WarnContext(context.Context, string, ...Field) {}
func (NopLogger) ErrorContext(context.Context, string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (n NopLogger) WithError(error) Logger { return n }
