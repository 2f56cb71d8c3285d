package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the JSON logger used by both binaries. level overrides the
// env default (debug in dev, info elsewhere) when it names a slog level.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	lvl := slog.LevelInfo
	if env == "dev" {
		lvl = slog.LevelDebug
	}

	if level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			lvl = parsed
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})

	return slog.New(NewTraceHandler(handler)).With("env", env)
}
