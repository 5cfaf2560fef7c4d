package docflow

import (
	"testing"
	"time"

	"github.com/kyuff/docflow/internal/assert"
	"github.com/kyuff/docflow/internal/uuid"
)

// ApplyState is a test helper meant to make it easy to build a state by
// folding event contents in order.
func ApplyState[T Handler](t *testing.T, state T, contents ...Content) T {
	t.Helper()
	if len(contents) == 0 {
		return state
	}

	var (
		aggregateType = uuid.V7()
		aggregateID   = uuid.V7()
		eventTime     = time.Now()
		storeEventIDs = uuid.V7At(eventTime, len(contents))
	)

	for i, content := range contents {
		err := state.Handle(t.Context(), Event{
			AggregateID:   aggregateID,
			AggregateType: aggregateType,
			EventNumber:   int64(i + 1),
			EventTime:     eventTime,
			Content:       content,
			StoreEventID:  storeEventIDs[i],
		})
		assert.NoError(t, err)
	}

	return state
}
