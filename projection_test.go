package docflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/internal/assert"
	"github.com/kyuff/docflow/internal/seqs"
	"github.com/kyuff/docflow/internal/uuid"
	"github.com/kyuff/docflow/storage/inmemory"
)

type ReadModelMock struct {
	LastOffsetFunc func(ctx context.Context) (int64, error)
	ApplyAtFunc    func(ctx context.Context, offset int64, event docflow.Event) error
}

func (m *ReadModelMock) LastOffset(ctx context.Context) (int64, error) {
	return m.LastOffsetFunc(ctx)
}

func (m *ReadModelMock) ApplyAt(ctx context.Context, offset int64, event docflow.Event) error {
	return m.ApplyAtFunc(ctx, offset, event)
}

func TestProjector(t *testing.T) {
	var (
		ctx              = context.Background()
		newAggregateType = uuid.V7
		newAggregateID   = uuid.V7
		newJournal       = func(t *testing.T, aggregateType, aggregateID string, count int) *inmemory.Storage {
			t.Helper()
			storage := inmemory.New()
			assert.NoError(t, storage.Register(aggregateType, Added{}))
			var events []docflow.Event
			for i := range count {
				events = append(events, docflow.Event{
					AggregateID:   aggregateID,
					AggregateType: aggregateType,
					EventNumber:   int64(i + 1),
					CorrelationID: uuid.V7(),
					Content:       Added{Amount: i + 1},
					StoreEventID:  uuid.V7(),
				})
			}
			assert.NoError(t, storage.Append(ctx, aggregateType, aggregateID, 0, seqs.Seq2(events...)))
			// closing ends the global subscription once the tail is drained
			assert.NoError(t, storage.Close())
			return storage
		}
	)

	t.Run("should apply every event from the model's offset", func(t *testing.T) {
		// arrange
		var (
			aggregateType = newAggregateType()
			aggregateID   = newAggregateID()
			storage       = newJournal(t, aggregateType, aggregateID, 3)
			applied       []int64
			model         = &ReadModelMock{
				LastOffsetFunc: func(ctx context.Context) (int64, error) {
					return 0, nil
				},
				ApplyAtFunc: func(ctx context.Context, offset int64, event docflow.Event) error {
					applied = append(applied, offset)
					return nil
				},
			}
			sut = docflow.NewProjector(storage, model)
		)

		// act
		err := sut.Run(ctx)

		// assert
		assert.NoError(t, err)
		assert.EqualSlice(t, []int64{1, 2, 3}, applied)
	})

	t.Run("should resume after the last durable offset", func(t *testing.T) {
		// arrange
		var (
			aggregateType = newAggregateType()
			aggregateID   = newAggregateID()
			storage       = newJournal(t, aggregateType, aggregateID, 3)
			applied       []int64
			model         = &ReadModelMock{
				LastOffsetFunc: func(ctx context.Context) (int64, error) {
					return 2, nil
				},
				ApplyAtFunc: func(ctx context.Context, offset int64, event docflow.Event) error {
					applied = append(applied, offset)
					return nil
				},
			}
			sut = docflow.NewProjector(storage, model)
		)

		// act
		err := sut.Run(ctx)

		// assert
		assert.NoError(t, err)
		assert.EqualSlice(t, []int64{3}, applied)
	})

	t.Run("should halt on an apply error without advancing", func(t *testing.T) {
		// arrange
		var (
			aggregateType = newAggregateType()
			aggregateID   = newAggregateID()
			storage       = newJournal(t, aggregateType, aggregateID, 3)
			applyErr      = errors.New("broken model")
			applied       []int64
			model         = &ReadModelMock{
				LastOffsetFunc: func(ctx context.Context) (int64, error) {
					return 0, nil
				},
				ApplyAtFunc: func(ctx context.Context, offset int64, event docflow.Event) error {
					if offset == 2 {
						return applyErr
					}
					applied = append(applied, offset)
					return nil
				},
			}
			sut = docflow.NewProjector(storage, model)
		)

		// act
		err := sut.Run(ctx)

		// assert
		assert.ErrorIs(t, applyErr, err)
		assert.EqualSlice(t, []int64{1}, applied)
	})

	t.Run("should fail when the offset cannot be read", func(t *testing.T) {
		// arrange
		var (
			aggregateType = newAggregateType()
			aggregateID   = newAggregateID()
			storage       = newJournal(t, aggregateType, aggregateID, 1)
			offsetErr     = errors.New("no offset")
			model         = &ReadModelMock{
				LastOffsetFunc: func(ctx context.Context) (int64, error) {
					return 0, offsetErr
				},
			}
			sut = docflow.NewProjector(storage, model)
		)

		// act
		err := sut.Run(ctx)

		// assert
		assert.ErrorIs(t, offsetErr, err)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		// arrange
		var (
			storage = inmemory.New()
			model   = &ReadModelMock{
				LastOffsetFunc: func(ctx context.Context) (int64, error) {
					return 0, nil
				},
				ApplyAtFunc: func(ctx context.Context, offset int64, event docflow.Event) error {
					return nil
				},
			}
			sut = docflow.NewProjector(storage, model)
		)
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- sut.Run(runCtx)
		}()

		// act
		cancel()

		// assert
		assert.ErrorIs(t, context.Canceled, <-done)
	})
}
