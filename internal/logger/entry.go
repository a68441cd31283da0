package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Entry accumulates numeric fields for one log line: timings, counts,
// scores and costs. Tracing fields come from the context at emit time.
//
//	logger.With(logger.Fields{logger.FieldStrategy: s.Name}).
//		WithCount(len(ranked)).
//		WithDuration(elapsed.Milliseconds()).
//		Info(ctx, "Pass 1 scored")
type Entry struct {
	logger *Logger
	fields Fields
}

// With starts an Entry on the default logger.
func With(fields Fields) *Entry {
	return &Entry{logger: GetDefault(), fields: fields}
}

// With returns a copy of the Entry with fields merged in. Later keys win.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for _, src := range []Fields{e.fields, fields} {
		for k, v := range src {
			merged[k] = v
		}
	}
	return &Entry{logger: e.logger, fields: merged}
}

func (e *Entry) set(key string, value interface{}) *Entry {
	return e.With(Fields{key: value})
}

// WithDuration sets duration_ms.
func (e *Entry) WithDuration(ms int64) *Entry { return e.set(FieldDurationMs, ms) }

// WithCount sets count.
func (e *Entry) WithCount(n int) *Entry { return e.set(FieldCount, n) }

// WithStatus sets status.
func (e *Entry) WithStatus(status string) *Entry { return e.set(FieldStatus, status) }

// WithScore sets score.
func (e *Entry) WithScore(score float64) *Entry { return e.set(FieldScore, score) }

// WithCost sets cost_usd.
func (e *Entry) WithCost(usd float64) *Entry { return e.set(FieldCostUSD, usd) }

// WithCandidate sets candidate_id.
func (e *Entry) WithCandidate(id string) *Entry { return e.set(FieldCandidateID, id) }

// Debug logs at debug level.
func (e *Entry) Debug(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.DebugLevel, format, args...)
}

// Info logs at info level.
func (e *Entry) Info(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.InfoLevel, format, args...)
}

// Warn logs at warn level.
func (e *Entry) Warn(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.WarnLevel, format, args...)
}

// Error logs at error level.
func (e *Entry) Error(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.ErrorLevel, format, args...)
}

// logf prefers the context's logger so run_id and strategy are kept.
func (e *Entry) logf(ctx context.Context, level logrus.Level, format string, args ...interface{}) {
	target := e.logger
	if ctx != nil {
		target = FromContext(ctx)
	}
	target.Entry.WithFields(logrus.Fields(e.fields)).Logf(level, format, args...)
}
