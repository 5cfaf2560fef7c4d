package docflow

import (
	"context"
	"fmt"
)

// ReadModel is a projection target. ApplyAt must update the model and
// advance the consumer offset in one atomic operation, and must be
// idempotent: the projector delivers at least once.
type ReadModel interface {
	// LastOffset returns the offset of the last event durably applied.
	LastOffset(ctx context.Context) (int64, error)
	// ApplyAt applies the event and records offset atomically.
	ApplyAt(ctx context.Context, offset int64, event Event) error
}

// Projector folds the global journal into a ReadModel. On an apply error it
// halts without advancing the offset, so a restart redelivers the event
// instead of silently skipping it.
type Projector struct {
	storage Storage
	model   ReadModel
	cfg     *Config
}

func NewProjector(storage Storage, model ReadModel, opts ...Option) *Projector {
	return &Projector{
		storage: storage,
		model:   model,
		cfg:     applyOptions(defaultOptions(), opts...),
	}
}

// Run blocks, following the journal tail from the model's last durable
// offset, until ctx is done or an apply fails.
func (p *Projector) Run(ctx context.Context) error {
	offset, err := p.model.LastOffset(ctx)
	if err != nil {
		return fmt.Errorf("docflow: reading projection offset: %w", err)
	}

	for stored, err := range p.storage.SubscribeGlobal(ctx, offset) {
		if err != nil {
			return fmt.Errorf("docflow: reading journal: %w", err)
		}

		err = p.model.ApplyAt(ctx, stored.Offset, stored.Event)
		if err != nil {
			p.cfg.logger.ErrorfCtx(ctx, "docflow: projecting offset %d (%s): %s",
				stored.Offset, stored.Event.Content.EventName(), err)
			return fmt.Errorf("docflow: projecting offset %d: %w", stored.Offset, err)
		}
	}

	return ctx.Err()
}
