package docflow

type decisionKind int

const (
	decisionIgnore decisionKind = iota
	decisionPersist
	decisionReject
)

// Decision is the outcome of a StateMachine deciding on a Command.
// It is a closed set constructed with Persist, Reject or Ignore.
type Decision struct {
	kind      decisionKind
	events    []Content
	rejection Content
}

// Persist accepts the command. The events are appended to the aggregate's
// stream in the given order and applied to the in-memory state.
func Persist(events ...Content) Decision {
	return Decision{kind: decisionPersist, events: events}
}

// Reject refuses the command with a typed error event. The content is
// delivered to the caller and to matching correlation subscriptions, but it
// is never appended to the stream and the aggregate version does not change.
func Reject(content Content) Decision {
	return Decision{kind: decisionReject, rejection: content}
}

// Ignore drops the command without an event and without an error.
// The Store logs ignored commands so the no-op is auditable.
func Ignore() Decision {
	return Decision{kind: decisionIgnore}
}
