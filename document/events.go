package document

import "github.com/kyuff/docflow"

// CreatedOrUpdated replaces the stored document. It is emitted both for
// normal edits and for restoring a prior version.
type CreatedOrUpdated struct {
	Document Document `json:"document"`
}

func (CreatedOrUpdated) EventName() string { return "CreatedOrUpdated" }

// ApprovalCodeSet stores the workflow's generated approval code.
type ApprovalCodeSet struct {
	Code string `json:"code"`
}

func (ApprovalCodeSet) EventName() string { return "ApprovalCodeSet" }

// Approved marks the document approved.
type Approved struct{}

func (Approved) EventName() string { return "Approved" }

// Rejected marks the document rejected.
type Rejected struct {
	Reason string `json:"reason,omitempty"`
}

func (Rejected) EventName() string { return "Rejected" }

// DocumentNotFound is the rejection for a command addressing a document
// other than the loaded one. It is delivered, never journaled.
type DocumentNotFound struct {
	DocumentID string `json:"documentId"`
}

func (DocumentNotFound) EventName() string { return "DocumentNotFound" }

// Events lists the journaled content shapes for registration.
func Events() []docflow.Content {
	return []docflow.Content{
		CreatedOrUpdated{},
		ApprovalCodeSet{},
		Approved{},
		Rejected{},
	}
}
