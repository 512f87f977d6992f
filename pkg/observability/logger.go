// Package observability provides structured logging, metrics collection,
// health checks and operation timing for teampulse.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName is attached to every log entry.
const ServiceName = "teampulse"

// LogOptions configures NewLogger. The zero value logs text at info level
// to stderr.
type LogOptions struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is text or json. Empty selects json in production.
	Format string
	// Env is the deployment environment; production also adds source locations.
	Env     string
	Version string
	Output  io.Writer
}

func (o LogOptions) production() bool {
	return strings.EqualFold(o.Env, "production")
}

// NewLogger builds a logger that stamps every entry with the service name and
// version, plus the correlation ID, refresh cycle and filter carried by the
// context.
func NewLogger(opts LogOptions) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.production(),
	}

	format := strings.ToLower(opts.Format)
	if format == "" && opts.production() {
		format = "json"
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return slog.New(scopeHandler{next: handler})
}

// LoggerFromEnv builds the bootstrap logger used before configuration is
// loaded, from TEAMPULSE_ENV, TEAMPULSE_LOG_LEVEL, TEAMPULSE_LOG_FORMAT and
// TEAMPULSE_VERSION.
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogOptions{
		Level:   os.Getenv("TEAMPULSE_LOG_LEVEL"),
		Format:  os.Getenv("TEAMPULSE_LOG_FORMAT"),
		Env:     os.Getenv("TEAMPULSE_ENV"),
		Version: os.Getenv("TEAMPULSE_VERSION"),
	})
}

// ParseLevel maps a level name onto slog, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// scopeHandler appends the context's log scope to each record.
type scopeHandler struct {
	next slog.Handler
}

func (h scopeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h scopeHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := scopeFrom(ctx).attrs(); len(attrs) > 0 {
		r.Add(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scopeHandler{next: h.next.WithAttrs(attrs)}
}

func (h scopeHandler) WithGroup(name string) slog.Handler {
	return scopeHandler{next: h.next.WithGroup(name)}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
