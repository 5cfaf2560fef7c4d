package document

import (
	"context"

	"github.com/kyuff/docflow"
)

// ApprovalStatus is the tri-state workflow outcome on a document.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// State is the fold of one document's stream.
type State struct {
	Document     Document
	Present      bool
	ApprovalCode string
	Approval     ApprovalStatus
	Version      int64
}

var _ docflow.State = (*State)(nil)

func (s *State) Handle(ctx context.Context, event docflow.Event) error {
	switch content := event.Content.(type) {
	case CreatedOrUpdated:
		s.Document = content.Document
		s.Present = true
	case ApprovalCodeSet:
		s.ApprovalCode = content.Code
	case Approved:
		s.Approval = ApprovalApproved
	case Rejected:
		s.Approval = ApprovalRejected
	default:
		// Unknown content signals but does not mutate.
		return nil
	}

	s.Version = event.EventNumber

	return nil
}
