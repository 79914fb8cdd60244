// Package logger provides a simple wrapper around slog for structured logging.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// level is shared by every handler Setup builds, so SetLevel applies live.
var level = new(slog.LevelVar)

// Logger is the global logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

// Setup replaces Logger with a text or json handler on stderr.
func Setup(lvl, format string) error {
	return SetupWriter(os.Stderr, lvl, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, lvl, format string) error {
	if err := SetLevel(lvl); err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		Logger = slog.New(slog.NewTextHandler(w, opts))
	case "json":
		Logger = slog.New(slog.NewJSONHandler(w, opts))
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	slog.SetDefault(Logger)
	return nil
}

// SetLevel changes the minimum level: debug, info, warn or error.
func SetLevel(lvl string) error {
	if lvl == "" {
		lvl = "info"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		return fmt.Errorf("unknown log level %q", lvl)
	}
	level.Set(l)
	return nil
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
