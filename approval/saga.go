// Package approval drives the document approval workflow: a saga reacting
// to document events, generating an approval code and steering the document
// to an approved or rejected outcome.
package approval

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/document"
)

// SagaName is the stream type the workflow's transitions are journaled under.
const SagaName = "document-approval"

// Data is the saga's auxiliary data, rebuilt by folding its transitions.
type Data struct {
	Code string
}

// Saga is the approval workflow state machine.
type Saga struct{}

var _ docflow.Saga = Saga{}

func (Saga) React(event docflow.Event, current docflow.SagaState) (docflow.SagaState, bool) {
	switch content := event.Content.(type) {
	case document.CreatedOrUpdated:
		if current == nil {
			return GeneratingCode{}, true
		}
	case document.ApprovalCodeSet:
		if _, ok := current.(GeneratingCode); ok {
			return SendingNotification{Code: content.Code}, true
		}
	case document.Approved:
		return Approved{}, true
	case document.Rejected:
		return Rejected{}, true
	}

	return nil, false
}

func (Saga) Effects(ctx context.Context, data docflow.SagaData, current docflow.SagaState, recovering bool) docflow.Effect {
	switch state := current.(type) {
	case GeneratingCode:
		return docflow.Effect{
			Commands: []docflow.Command{
				{Content: document.SetApprovalCode{Code: generateCode()}},
			},
		}
	case SendingNotification:
		if recovering {
			// The notification went out before the restart. Stay put instead
			// of sending it again; the next event moves the saga along.
			return docflow.Effect{}
		}
		return docflow.Effect{Next: WaitingForApproval{Code: state.Code}}
	case WaitingForApproval:
		// Demo auto-approval. A real deployment would wait here for an
		// external decision event instead.
		return docflow.Effect{
			Commands: []docflow.Command{
				{Content: document.Approve{}},
			},
		}
	case Approved, Rejected:
		return docflow.Effect{Stop: true}
	}

	return docflow.Effect{}
}

func (Saga) Fold(data docflow.SagaData, entered docflow.SagaState) docflow.SagaData {
	d, ok := data.(Data)
	if !ok {
		d = Data{}
	}

	if state, ok := entered.(SendingNotification); ok {
		d.Code = state.Code
	}

	return d
}

// generateCode draws a 6 digit approval code uniformly from [100000, 999999].
func generateCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// Config wires the workflow into a Store.
func Config() docflow.SagaConfig {
	return docflow.SagaConfig{
		Name:          SagaName,
		AggregateType: document.AggregateType,
		StartsOn: func(event docflow.Event) bool {
			_, ok := event.Content.(document.CreatedOrUpdated)
			return ok
		},
		Saga:        Saga{},
		Transitions: Transitions(),
	}
}
