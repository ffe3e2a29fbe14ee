package tracking

import (
	"context"
	"errors"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
)

// MultiTracker fans one experiment record out to several trackers. All
// trackers are attempted even when earlier ones fail.
type MultiTracker struct {
	trackers []ports.ExperimentTracker
}

func NewMultiTracker(trackers ...ports.ExperimentTracker) *MultiTracker {
	return &MultiTracker{trackers: trackers}
}

func (t *MultiTracker) Record(ctx context.Context, experiment string, params map[string]string, metrics map[string]float64, table []domain.EvalRecord) error {
	var errs []error
	for _, tracker := range t.trackers {
		if err := tracker.Record(ctx, experiment, params, metrics, table); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
