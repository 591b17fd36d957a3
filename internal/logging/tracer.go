package logging

import (
	"context"
	"log/slog"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// StmtLogger is a sqlite.Tracer that writes every event to a slog.Logger.
// Successful events log at debug level; failed ones at warn with the
// result code attached.
type StmtLogger struct {
	logger *slog.Logger
}

var _ sqlite.Tracer = (*StmtLogger)(nil)

// NewStmtLogger returns a tracer logging to logger, or to the global logger
// when logger is nil. The logger is resolved on each event so a later
// InitLogger takes effect.
func NewStmtLogger(logger *slog.Logger) *StmtLogger {
	return &StmtLogger{logger: logger}
}

// NewStmtLoggerContext returns a tracer whose events carry the session ID
// from ctx.
func NewStmtLoggerContext(ctx context.Context) *StmtLogger {
	return &StmtLogger{logger: LoggerFromContext(ctx)}
}

// Trace implements sqlite.Tracer.
func (l *StmtLogger) Trace(ev sqlite.TraceEvent) {
	logger := l.logger
	if logger == nil {
		logger = defaultLogger
	}

	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("event", ev.Kind.String()),
		slog.String("location", ev.Location),
	}
	if ev.SQL != "" {
		attrs = append(attrs, slog.String("sql", ev.SQL))
	}
	if ev.Kind == sqlite.EventStep && ev.Err == nil {
		attrs = append(attrs, slog.String("result", ev.Step.String()))
	}
	if ev.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", ev.Duration))
	}
	if ev.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("code", sqlite.CodeOf(ev.Err).Name()),
			slog.String("error", ev.Err.Error()),
		)
	}

	logger.LogAttrs(context.Background(), level, "sqlite_trace", attrs...)
}
