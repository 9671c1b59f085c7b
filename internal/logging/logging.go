// Package logging builds the process logger. Logs always go to a diagnostic
// stream, never to the stream carrying model output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Supported formats.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// ParseLevel maps debug, info, warn (or warning) and error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	switch format {
	case "", FormatPretty, FormatJSON:
		return true
	}
	return false
}

// New returns a logger writing to w. The pretty format is colorized only
// when w is a terminal.
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	var handler slog.Handler
	switch format {
	case "", FormatPretty:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(w),
		})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatPretty, FormatJSON)
	}
	return slog.New(handler), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
