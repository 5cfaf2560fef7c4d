package eventassert

import (
	"testing"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/internal/assert"
)

func EqualEvent(t *testing.T, expected, actual docflow.Event) bool {
	t.Helper()
	equal := []bool{
		assert.Equalf(t, expected.AggregateID, actual.AggregateID, "AggregateID not equal"),
		assert.Equalf(t, expected.AggregateType, actual.AggregateType, "AggregateType not equal"),
		assert.Equalf(t, expected.EventNumber, actual.EventNumber, "EventNumber not equal"),
		assert.Equalf(t, expected.CorrelationID, actual.CorrelationID, "CorrelationID not equal"),
		assert.Equalf(t, expected.Content, actual.Content, "Content not equal"),
	}
	for _, eq := range equal {
		if !eq {
			return false
		}
	}

	return true
}
