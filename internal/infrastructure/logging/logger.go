package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

// ServiceName tags every entry.
const ServiceName = "companion"

// Logger is a slog.Logger whose With keeps the concrete type, so
// components can hold a *Logger scoped to themselves.
type Logger struct {
	*slog.Logger
}

// New logs to stdout, or stderr when cfg.Output says so.
func New(cfg config.LoggingConfig, version string) *Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(w, cfg, version)
}

// NewWithWriter builds a JSON logger, or a text one for format "text".
// Entries carry the service name and the build version.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel is case-insensitive; anything unknown logs at info.
func parseLevel(s string) slog.Level {
	if lvl, ok := levels[strings.ToLower(s)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// With scopes the logger, e.g. logger.With("component", "checkin").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the bootstrap logger used until the config file is read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}

// Discard drops everything. Constructors fall back to it when handed nil.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Redact keeps enough of a token or credential to match it across log
// lines without leaking it.
func Redact(secret string) string {
	const keep = 6
	switch {
	case secret == "":
		return ""
	case len(secret) <= keep:
		return "***"
	default:
		return secret[:keep] + "..."
	}
}
