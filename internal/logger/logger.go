// Package logger provides the process-wide logger for sercha-server.
// Messages are written through zerolog to stderr. Debug output and
// section markers only appear when verbose mode is enabled via --verbose.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	output  io.Writer = os.Stderr
	base              = build(os.Stderr, false, false)
)

// build constructs the underlying zerolog logger for the current settings.
func build(w io.Writer, v, asJSON bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if v {
		level = zerolog.DebugLevel
	}
	if asJSON {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

func rebuild() {
	base = build(output, verbose, jsonOut)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetJSON switches between human-readable console output and JSON lines.
func SetJSON(v bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = v
	rebuild()
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Get returns the underlying structured logger for callers that attach fields.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	l := Get()
	l.Debug().Msgf(format, args...)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	l := Get()
	l.Debug().Msgf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	l := Get()
	l.Info().Msgf(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	l := Get()
	l.Warn().Msgf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	l := Get()
	l.Error().Msgf(format, args...)
}
