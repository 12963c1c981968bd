// Package logging provides the CLI logger with redaction support.
// Secret payloads must never reach a log line; wrap them in Secret.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes human-oriented status lines to stderr so stdout stays
// reserved for secret payloads and machine-readable output.
type Logger struct {
	out     io.Writer
	debug   bool
	noColor bool
	quiet   bool
}

// New creates a new logger instance.
func New(debug, noColor, quiet bool) *Logger {
	return &Logger{
		out:     os.Stderr,
		debug:   debug,
		noColor: noColor,
		quiet:   quiet,
	}
}

// NewWithWriter creates a logger writing to w, for tests.
func NewWithWriter(w io.Writer, debug, noColor, quiet bool) *Logger {
	return &Logger{out: w, debug: debug, noColor: noColor, quiet: quiet}
}

// Info logs an informational message. Suppressed in quiet mode.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning message. Suppressed in quiet mode.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message. Errors are printed even in quiet mode.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug || l.quiet {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(colorPrefix, plainPrefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	prefix := plainPrefix
	if !l.noColor {
		prefix = colorPrefix
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
}

// Secret represents a value that should be redacted in logs.
type Secret string

// String implements the Stringer interface, always returning a redacted value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED].
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
