package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/document"
	"github.com/kyuff/docflow/document/sqlite"
	"github.com/kyuff/docflow/internal/assert"
	"github.com/kyuff/docflow/internal/uuid"
)

func TestStore(t *testing.T) {
	var (
		ctx      = context.Background()
		newStore = func(t *testing.T) *sqlite.Store {
			t.Helper()
			store, err := sqlite.Open(filepath.Join(t.TempDir(), "docflow.db"))
			assert.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		}
		newEvent = func(id string, number int64, content docflow.Content) docflow.Event {
			return docflow.Event{
				AggregateID:   id,
				AggregateType: document.AggregateType,
				EventNumber:   number,
				EventTime:     time.Now(),
				CorrelationID: uuid.V7(),
				Content:       content,
				StoreEventID:  uuid.V7(),
			}
		}
		newDocument = func(id string) document.Document {
			return document.Document{ID: id, Title: "Title", Content: "Content"}
		}
	)

	t.Run("LastOffset", func(t *testing.T) {
		t.Run("should start at zero", func(t *testing.T) {
			// arrange
			sut := newStore(t)

			// act
			offset, err := sut.LastOffset(ctx)

			// assert
			assert.NoError(t, err)
			assert.Equal(t, int64(0), offset)
		})
	})

	t.Run("ApplyAt", func(t *testing.T) {
		t.Run("should project the approval flow", func(t *testing.T) {
			// arrange
			var (
				id  = uuid.V7()
				sut = newStore(t)
			)

			// act
			assert.NoError(t, sut.ApplyAt(ctx, 1, newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})))
			assert.NoError(t, sut.ApplyAt(ctx, 2, newEvent(id, 2, document.ApprovalCodeSet{Code: "123456"})))
			assert.NoError(t, sut.ApplyAt(ctx, 3, newEvent(id, 3, document.Approved{})))

			// assert
			row, err := sut.Get(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, id, row.ID)
			assert.Equal(t, "Title", row.Title)
			assert.Equal(t, string(document.ApprovalApproved), row.Approval)
			assert.Equal(t, "123456", row.ApprovalCode)
			assert.Equal(t, int64(3), row.Version)

			offset, err := sut.LastOffset(ctx)
			assert.NoError(t, err)
			assert.Equal(t, int64(3), offset)
		})

		t.Run("should project a rejection", func(t *testing.T) {
			// arrange
			var (
				id  = uuid.V7()
				sut = newStore(t)
			)
			assert.NoError(t, sut.ApplyAt(ctx, 1, newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})))

			// act
			assert.NoError(t, sut.ApplyAt(ctx, 2, newEvent(id, 2, document.Rejected{Reason: "stale"})))

			// assert
			row, err := sut.Get(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, string(document.ApprovalRejected), row.Approval)
		})

		t.Run("should tolerate a redelivered event", func(t *testing.T) {
			// arrange
			var (
				id    = uuid.V7()
				sut   = newStore(t)
				event = newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})
			)
			assert.NoError(t, sut.ApplyAt(ctx, 1, event))

			// act
			err := sut.ApplyAt(ctx, 1, event)

			// assert
			assert.NoError(t, err)
			row, getErr := sut.Get(ctx, id)
			assert.NoError(t, getErr)
			assert.Equal(t, int64(1), row.Version)
			offset, offsetErr := sut.LastOffset(ctx)
			assert.NoError(t, offsetErr)
			assert.Equal(t, int64(1), offset)
		})

		t.Run("should advance the offset for foreign aggregate types", func(t *testing.T) {
			// arrange
			var (
				sut   = newStore(t)
				event = docflow.Event{
					AggregateID:   uuid.V7(),
					AggregateType: "document-approval",
					EventNumber:   1,
					EventTime:     time.Now(),
					Content:       document.Approved{},
				}
			)

			// act
			err := sut.ApplyAt(ctx, 7, event)

			// assert
			assert.NoError(t, err)
			offset, offsetErr := sut.LastOffset(ctx)
			assert.NoError(t, offsetErr)
			assert.Equal(t, int64(7), offset)
		})

		t.Run("should keep every version row", func(t *testing.T) {
			// arrange
			var (
				id  = uuid.V7()
				sut = newStore(t)
			)

			// act
			assert.NoError(t, sut.ApplyAt(ctx, 1, newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})))
			assert.NoError(t, sut.ApplyAt(ctx, 2, newEvent(id, 2, document.CreatedOrUpdated{Document: document.Document{
				ID: id, Title: "Second", Content: "Rewritten",
			}})))

			// assert
			versions, err := sut.ListVersions(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, 2, len(versions))
			assert.Equal(t, "Title", versions[0].Title)
			assert.Equal(t, "Second", versions[1].Title)
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("should fail on an unknown document", func(t *testing.T) {
			// arrange
			sut := newStore(t)

			// act
			_, err := sut.Get(ctx, uuid.V7())

			// assert
			assert.ErrorIs(t, sqlite.ErrNotFound, err)
		})
	})

	t.Run("GetVersion", func(t *testing.T) {
		t.Run("should read a historical version", func(t *testing.T) {
			// arrange
			var (
				id  = uuid.V7()
				sut = newStore(t)
			)
			assert.NoError(t, sut.ApplyAt(ctx, 1, newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})))
			assert.NoError(t, sut.ApplyAt(ctx, 2, newEvent(id, 2, document.CreatedOrUpdated{Document: document.Document{
				ID: id, Title: "Second", Content: "Rewritten",
			}})))

			// act
			row, err := sut.GetVersion(ctx, id, 1)

			// assert
			assert.NoError(t, err)
			assert.Equal(t, "Title", row.Title)
			assert.Equal(t, int64(1), row.Version)
		})

		t.Run("should fail on an unknown version", func(t *testing.T) {
			// arrange
			var (
				id  = uuid.V7()
				sut = newStore(t)
			)
			assert.NoError(t, sut.ApplyAt(ctx, 1, newEvent(id, 1, document.CreatedOrUpdated{Document: newDocument(id)})))

			// act
			_, err := sut.GetVersion(ctx, id, 9)

			// assert
			assert.ErrorIs(t, sqlite.ErrNotFound, err)
		})
	})

	t.Run("ListVersions", func(t *testing.T) {
		t.Run("should return nothing for an unknown document", func(t *testing.T) {
			// arrange
			sut := newStore(t)

			// act
			versions, err := sut.ListVersions(ctx, uuid.V7())

			// assert
			assert.NoError(t, err)
			assert.Equal(t, 0, len(versions))
		})
	})
}
