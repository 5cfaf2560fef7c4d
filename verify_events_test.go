package docflow_test

import (
	"testing"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/internal/assert"
)

func TestVerifyEvents(t *testing.T) {
	t.Run("fail when len differs", func(t *testing.T) {
		// arrange
		var (
			tt     = &testing.T{}
			events = []docflow.Content{
				Added{Amount: 2},
				Added{Amount: 4},
			}
		)
		// act
		valid := docflow.VerifyEvents(tt, events,
			Added{Amount: 2},
			Added{Amount: 4},
			Added{Amount: 3},
		)

		// assert
		assert.Truef(t, !valid, "response")
		assert.Truef(t, tt.Failed(), "len mismatch")
	})

	t.Run("fail when item has different content", func(t *testing.T) {
		// arrange
		var (
			tt     = &testing.T{}
			events = []docflow.Content{
				Added{Amount: 2},
				Added{Amount: 4},
			}
		)
		// act
		valid := docflow.VerifyEvents(tt, events,
			Added{Amount: 2},
			Added{Amount: 3},
		)

		// assert
		assert.Truef(t, !valid, "response")
		assert.Truef(t, tt.Failed(), "content differs")
	})

	t.Run("fail when matcher declines", func(t *testing.T) {
		// arrange
		var (
			tt     = &testing.T{}
			events = []docflow.Content{
				Added{Amount: 2},
				Added{Amount: 4},
			}
		)
		// act
		valid := docflow.VerifyEvents(tt, events,
			Added{Amount: 2},
			func(got any) bool {
				return false
			},
		)

		// assert
		assert.Truef(t, !valid, "response")
		assert.Truef(t, tt.Failed(), "content differs")
	})

	t.Run("verify all events", func(t *testing.T) {
		// arrange
		var (
			tt     = &testing.T{}
			events = []docflow.Content{
				Added{Amount: 2},
				Added{Amount: 4},
				Totaled{Total: 6},
			}
		)
		// act
		valid := docflow.VerifyEvents(tt, events,
			Added{Amount: 2},
			func(got any) bool {
				return true
			},
			Totaled{Total: 6},
		)

		// assert
		assert.Truef(t, valid, "response")
		assert.Truef(t, !tt.Failed(), "should verify")
	})
}
