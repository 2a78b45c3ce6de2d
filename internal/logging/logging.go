// Package logging provides the structured logger shared by healthsync packages.
package logging

import (
	"io"
	"log/slog"
	"os"
)

var (
	// Logger is the global logger instance. It writes to stderr so stdout
	// stays usable for JSON output and the stdio server.
	Logger = newLogger(os.Stderr, slog.LevelInfo)

	out   io.Writer = os.Stderr
	level           = slog.LevelInfo
)

func newLogger(w io.Writer, l slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// SetLevel sets the logging level.
func SetLevel(l slog.Level) {
	level = l
	Logger = newLogger(out, level)
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	out = w
	Logger = newLogger(out, level)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
