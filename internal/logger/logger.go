// Package logger provides a context-aware structured logger backed by zerolog.
package logger

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Level is the minimum severity a Logger writes.
type Level int8

const (
	LevelDebug Level = Level(zerolog.DebugLevel)
	LevelInfo  Level = Level(zerolog.InfoLevel)
	LevelWarn  Level = Level(zerolog.WarnLevel)
	LevelError Level = Level(zerolog.ErrorLevel)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TraceIDFn extracts a trace id from the context. Empty means no trace.
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is the logging contract every module depends on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

var _ LoggerInterface = (*Logger)(nil)

// Logger writes JSON lines through zerolog.
type Logger struct {
	zl        zerolog.Logger
	traceIDFn TraceIDFn
}

// New builds a Logger writing to w. A nil traceIDFn reads the otel span context.
func New(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	if traceIDFn == nil {
		traceIDFn = otelTraceID
	}

	zl := zerolog.New(w).
		Level(zerolog.Level(minLevel)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{zl: zl, traceIDFn: traceIDFn}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.DebugLevel, 0, msg, args)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.InfoLevel, 0, msg, args)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.WarnLevel, 0, msg, args)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zerolog.ErrorLevel, 0, msg, args)
}

// Debugc logs at debug level, attributing the record to the caller frame.
func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.DebugLevel, caller, msg, args)
}

// Infoc logs at info level, attributing the record to the caller frame.
func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.InfoLevel, caller, msg, args)
}

// Warnc logs at warn level, attributing the record to the caller frame.
func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.WarnLevel, caller, msg, args)
}

// Errorc logs at error level, attributing the record to the caller frame.
func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, zerolog.ErrorLevel, caller, msg, args)
}

// frames between the public method's caller and zerolog's Caller call
const baseCallerSkip = 3

func (l *Logger) write(ctx context.Context, level zerolog.Level, caller int, msg string, args []any) {
	ev := l.zl.WithLevel(level)
	if ev == nil {
		return
	}

	if caller > 0 {
		ev = ev.Caller(baseCallerSkip + caller)
	}

	if ctx != nil {
		if id := l.traceIDFn(ctx); id != "" {
			ev = ev.Str("trace_id", id)
		}
	}

	if len(args) > 0 {
		if len(args)%2 != 0 {
			args = append(args, "!MISSING")
		}
		ev = ev.Fields(args)
	}

	ev.Msg(msg)
}

func otelTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
