package document

// CreateOrUpdate creates the document or overwrites it in place. Restoring a
// historical version is the same command with the historical payload.
type CreateOrUpdate struct {
	Document Document
}

func (CreateOrUpdate) CommandName() string { return "CreateOrUpdate" }

// SetApprovalCode is issued by the approval workflow.
type SetApprovalCode struct {
	Code string
}

func (SetApprovalCode) CommandName() string { return "SetApprovalCode" }

// Approve is issued by the approval workflow.
type Approve struct{}

func (Approve) CommandName() string { return "Approve" }

// Reject is issued by the approval workflow.
type Reject struct {
	Reason string
}

func (Reject) CommandName() string { return "Reject" }
