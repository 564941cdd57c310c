// Package logging builds the structured logger used by the commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-eeg/internal/config"
)

// New returns a logger writing to w in the configured format. Every record
// carries a run_id unique to this logger.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return slog.New(h).With("run_id", uuid.NewString()), nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// Count formats n with thousands separators.
func Count(n int) slog.Attr {
	return slog.String("count", humanize.Comma(int64(n)))
}

// Samples formats a sample count for log output.
func Samples(n int) slog.Attr {
	return slog.String("samples", humanize.Comma(int64(n)))
}

// Size formats a byte count for log output.
func Size(bytes int64) slog.Attr {
	if bytes < 0 {
		bytes = 0
	}
	return slog.String("size", humanize.Bytes(uint64(bytes)))
}
