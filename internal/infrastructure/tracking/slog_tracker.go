// Package tracking records experiment runs to operator-visible sinks.
package tracking

import (
	"context"
	"log/slog"

	"github.com/yctsai/akasha/internal/core/domain"
)

// SlogTracker emits one structured log line per recorded experiment run,
// with per-question rows at debug level.
type SlogTracker struct {
	logger *slog.Logger
}

func NewSlogTracker(logger *slog.Logger) *SlogTracker {
	return &SlogTracker{logger: logger}
}

func (t *SlogTracker) Record(ctx context.Context, experiment string, params map[string]string, metrics map[string]float64, table []domain.EvalRecord) error {
	attrs := make([]any, 0, 2*(len(params)+len(metrics))+4)
	attrs = append(attrs, "experiment", experiment)
	for k, v := range params {
		attrs = append(attrs, "param_"+k, v)
	}
	for k, v := range metrics {
		attrs = append(attrs, "metric_"+k, v)
	}
	attrs = append(attrs, "rows", len(table))
	t.logger.InfoContext(ctx, "experiment_recorded", attrs...)

	for i, rec := range table {
		t.logger.DebugContext(ctx, "experiment_row",
			"experiment", experiment,
			"position", i,
			"question", rec.Question,
			"expected", rec.Expected,
			"got", rec.Got,
			"correct", rec.Correct,
			"tokens", rec.Tokens,
		)
	}
	return nil
}
