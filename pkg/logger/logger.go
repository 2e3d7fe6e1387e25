package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Formats accepted by NewHandler.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// HandlerOptions configures NewHandler. The zero value logs JSON at info level to stdout.
type HandlerOptions struct {
	Level  slog.Leveler
	Format string
	Writer io.Writer
}

// NewHandler builds the slog handler used by the service.
func NewHandler(opts *HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(opts.Format, FormatText) {
		return slog.NewTextHandler(w, handlerOpts)
	}

	return slog.NewJSONHandler(w, handlerOpts)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}

	return level
}
