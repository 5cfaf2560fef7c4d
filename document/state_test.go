package document_test

import (
	"testing"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/document"
	"github.com/kyuff/docflow/internal/assert"
	"github.com/kyuff/docflow/internal/uuid"
)

func TestState(t *testing.T) {
	var (
		newDocument = func() document.Document {
			return document.Document{ID: uuid.V7(), Title: "Title", Content: "Content"}
		}
	)

	t.Run("should fold a create", func(t *testing.T) {
		// arrange
		doc := newDocument()

		// act
		state := docflow.ApplyState(t, &document.State{Approval: document.ApprovalPending},
			document.CreatedOrUpdated{Document: doc},
		)

		// assert
		assert.Equal(t, doc, state.Document)
		assert.Equal(t, true, state.Present)
		assert.Equal(t, document.ApprovalPending, state.Approval)
		assert.Equal(t, int64(1), state.Version)
	})

	t.Run("should fold the full approval flow", func(t *testing.T) {
		// arrange
		doc := newDocument()

		// act
		state := docflow.ApplyState(t, &document.State{Approval: document.ApprovalPending},
			document.CreatedOrUpdated{Document: doc},
			document.ApprovalCodeSet{Code: "314159"},
			document.Approved{},
		)

		// assert
		assert.Equal(t, "314159", state.ApprovalCode)
		assert.Equal(t, document.ApprovalApproved, state.Approval)
		assert.Equal(t, int64(3), state.Version)
	})

	t.Run("should fold a rejection", func(t *testing.T) {
		// act
		state := docflow.ApplyState(t, &document.State{Approval: document.ApprovalPending},
			document.CreatedOrUpdated{Document: newDocument()},
			document.Rejected{Reason: "stale"},
		)

		// assert
		assert.Equal(t, document.ApprovalRejected, state.Approval)
		assert.Equal(t, int64(2), state.Version)
	})

	t.Run("should keep the latest document on update", func(t *testing.T) {
		// arrange
		var (
			first  = newDocument()
			second = document.Document{ID: first.ID, Title: "Second", Content: "Rewritten"}
		)

		// act
		state := docflow.ApplyState(t, &document.State{Approval: document.ApprovalPending},
			document.CreatedOrUpdated{Document: first},
			document.CreatedOrUpdated{Document: second},
		)

		// assert
		assert.Equal(t, second, state.Document)
		assert.Equal(t, int64(2), state.Version)
	})

	t.Run("should skip unknown content without advancing", func(t *testing.T) {
		// arrange
		state := docflow.ApplyState(t, &document.State{Approval: document.ApprovalPending},
			document.CreatedOrUpdated{Document: newDocument()},
		)

		// act
		err := state.Handle(t.Context(), docflow.Event{
			EventNumber: 2,
			Content:     document.DocumentNotFound{DocumentID: uuid.V7()},
		})

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(1), state.Version)
	})
}
