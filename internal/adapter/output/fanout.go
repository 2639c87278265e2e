package output

import (
	"context"

	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

// Fanout saves to a primary sink and then hands the batch to every mirror.
// Only the primary can fail a save; mirror errors are logged.
type Fanout struct {
	primary ports.Sink
	mirrors []ports.BatchMirror
	logger  ports.Logger
}

var _ ports.Sink = (*Fanout)(nil)

// NewFanout skips nil mirrors so optional backends can be passed unconditionally.
func NewFanout(logger ports.Logger, primary ports.Sink, mirrors ...ports.BatchMirror) *Fanout {
	active := make([]ports.BatchMirror, 0, len(mirrors))
	for _, m := range mirrors {
		if m != nil {
			active = append(active, m)
		}
	}
	return &Fanout{primary: primary, mirrors: active, logger: logger}
}

// Save returns the primary sink's location.
func (f *Fanout) Save(ctx context.Context, batch *model.Batch) (string, error) {
	location, err := f.primary.Save(ctx, batch)
	if err != nil {
		return "", err
	}
	for _, m := range f.mirrors {
		if err := m.Mirror(ctx, batch, location); err != nil {
			f.logger.Error(ctx, "batch mirror failed", "run_id", batch.RunID, "error", err)
		}
	}
	return location, nil
}
