package approval

import "github.com/kyuff/docflow"

// GeneratingCode is the workflow's first phase, entered when a document is
// created or updated.
type GeneratingCode struct{}

func (GeneratingCode) EventName() string { return "GeneratingCode" }

// SendingNotification holds the generated code while the notification goes
// out.
type SendingNotification struct {
	Code string `json:"code"`
}

func (SendingNotification) EventName() string { return "SendingNotification" }

// WaitingForApproval holds the code while the workflow waits for a decision.
type WaitingForApproval struct {
	Code string `json:"code"`
}

func (WaitingForApproval) EventName() string { return "WaitingForApproval" }

// Approved is terminal.
type Approved struct{}

func (Approved) EventName() string { return "Approved" }

// Rejected is terminal.
type Rejected struct{}

func (Rejected) EventName() string { return "Rejected" }

// Transitions lists the journaled state shapes for registration.
func Transitions() []docflow.Content {
	return []docflow.Content{
		GeneratingCode{},
		SendingNotification{},
		WaitingForApproval{},
		Approved{},
		Rejected{},
	}
}
