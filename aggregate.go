package docflow

// State is the in-memory fold of one aggregate instance. It is rebuilt by
// replaying the instance's events in order through Handle. The entity worker
// owning the instance is the only writer.
type State interface {
	Handler
}

// StateMachine is the pure decision half of an aggregate.
//
// Decide inspects the command against the current state and returns a
// Decision. It must not mutate the state and must not have side effects, so
// a failed append can safely re-run it against the unchanged state.
type StateMachine interface {
	// NewState returns the initial state an empty stream folds onto.
	NewState() State
	// Decide evaluates a command against the current state.
	Decide(cmd Command, state State) Decision
}
