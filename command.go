package docflow

import "fmt"

// CommandContent is the application specific payload of a Command.
type CommandContent interface {
	CommandName() string
}

// Command is a request to change the state of a single aggregate instance.
// Commands are routed to the entity worker owning (AggregateType,
// AggregateID) and handled one at a time.
type Command struct {
	// AggregateType selects the registered aggregate the command targets.
	AggregateType string
	// AggregateID is the identity of the aggregate instance the command targets.
	AggregateID string
	// CorrelationID is a caller chosen token that is stamped on every event the
	// command produces. Callers use it to correlate an asynchronous outcome
	// with the submission, see Store.SubscribeCorrelation. Left empty, the
	// Store assigns one.
	CorrelationID string
	// Content is the actual command payload.
	Content CommandContent
}

// Rejection is returned by Store.Execute when the aggregate refused the
// command. The Event carries the typed rejection content and the aggregate's
// unchanged version; it was never appended to the stream.
type Rejection struct {
	Event Event
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("docflow: command rejected: %s", r.Event.Content.EventName())
}
