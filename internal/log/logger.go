package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Logger is a slog.Logger bound to one component.
type Logger struct {
	*slog.Logger
	component string
}

// NewLogger returns a component logger on top of slog.Default().
// Build it after the default handler has been configured.
func NewLogger(component string) *Logger {
	return FromSlog(slog.Default(), component)
}

// FromSlog binds an existing slog.Logger to component.
func FromSlog(l *slog.Logger, component string) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{Logger: l.With(FieldComponent, component), component: component}
}

// With returns a child logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

func (l *Logger) Component() string {
	return l.component
}

// Op logs msg with an operation name and a prepared field set.
// A non-nil err raises the level to Error.
func (l *Logger) Op(ctx context.Context, op, msg string, fields LogFields, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	fields = fields.WithOperation(op).WithError(err)
	l.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewHandler builds a text or json handler.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
