// internal/morse/diagnostics.go
package morse

import (
	"context"
	"log/slog"
)

// DiagnosticSink receives non-fatal decode notifications.
// Implementations must be fast; they run on the decode goroutine.
type DiagnosticSink interface {
	// UnknownRun is called for a run that matched no tolerance band
	UnknownRun(index int, run Run)
	// Error is called for errors the session recovers from
	Error(err error)
}

// NopSink discards all diagnostics.
type NopSink struct{}

func (NopSink) UnknownRun(int, Run) {}
func (NopSink) Error(error)         {}

// LogSink writes diagnostics to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink logging to l, or to slog.Default() when l is nil.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{Logger: l}
}

func (s *LogSink) UnknownRun(index int, run Run) {
	s.Logger.LogAttrs(context.Background(), slog.LevelWarn, ErrUnknownRun.Error(),
		slog.Int("index", index),
		slog.String("kind", run.Kind.String()),
		slog.Int("length", run.Len))
}

func (s *LogSink) Error(err error) {
	s.Logger.LogAttrs(context.Background(), slog.LevelWarn, "decode", slog.Any("error", err))
}
