package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return newLogger(os.Stdout, false, service, level)
}

// NewLogger uses a text handler when stdout is an interactive terminal and
// JSON otherwise.
func NewLogger(service, level string) *slog.Logger {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return newLogger(os.Stdout, tty, service, level)
}

func newLogger(w io.Writer, text bool, service, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewTextLogger writes human-readable records to w, for interactive tools
// whose stdout carries command output.
func NewTextLogger(w io.Writer, service, level string) *slog.Logger {
	return newLogger(w, true, service, level)
}
