package document

import "github.com/kyuff/docflow"

// Machine is the decision half of the document aggregate.
type Machine struct{}

var _ docflow.StateMachine = Machine{}

func (Machine) NewState() docflow.State {
	return &State{Approval: ApprovalPending}
}

func (Machine) Decide(cmd docflow.Command, state docflow.State) docflow.Decision {
	s := state.(*State)

	switch content := cmd.Content.(type) {
	case CreateOrUpdate:
		if s.Present && s.Document.ID != content.Document.ID {
			return docflow.Reject(DocumentNotFound{DocumentID: content.Document.ID})
		}
		return docflow.Persist(CreatedOrUpdated{Document: content.Document})
	case SetApprovalCode:
		// Workflow commands persist unconditionally. The saga's own state
		// gate pre-validated them.
		return docflow.Persist(ApprovalCodeSet{Code: content.Code})
	case Approve:
		return docflow.Persist(Approved{})
	case Reject:
		return docflow.Persist(Rejected{Reason: content.Reason})
	default:
		return docflow.Ignore()
	}
}
