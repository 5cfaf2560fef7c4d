package docflow

import (
	"context"
	"fmt"
	"time"

	"github.com/kyuff/docflow/internal/seqs"
	"github.com/kyuff/docflow/internal/uuid"
)

// SagaState is one phase of a long-running workflow. States are a closed set
// of named variants; each transition is persisted as an event in the saga's
// own stream, so a saga rebuilds exactly like an aggregate does.
type SagaState interface {
	Content
}

// SagaData is auxiliary data the saga threads across its own transitions,
// rebuilt by folding the persisted transitions in order.
type SagaData any

// Effect is the outcome of running Saga.Effects on a state entry.
type Effect struct {
	// Commands are dispatched toward their target aggregates, in order,
	// fire-and-wait with the store's dispatch timeout. A command with an
	// empty target goes to the origin aggregate instance that triggered the
	// saga. The transition into
	// the current state is persisted before any command is dispatched, so a
	// crash in between is recovered by re-running Effects; commands must
	// therefore be safe to repeat.
	Commands []Command
	// Next advances the saga to another state without an incoming event.
	// Nil stays in the current state.
	Next SagaState
	// Stop ends the saga. No further events are processed for its identity.
	Stop bool
}

// Saga is a pure reactive state machine driving a workflow from the events
// of a triggering aggregate.
type Saga interface {
	// React maps an incoming event and the current state (nil before the
	// first transition) to the next state. ok is false when the combination
	// is unhandled; the event is then skipped without a transition.
	React(event Event, current SagaState) (next SagaState, ok bool)
	// Effects runs once per state entry. recovering is true when the state
	// was restored from the saga's stream after a restart; externally
	// visible side effects tied to the original entry must not repeat then.
	Effects(ctx context.Context, data SagaData, current SagaState, recovering bool) Effect
	// Fold updates the saga data with an entered state.
	Fold(data SagaData, entered SagaState) SagaData
}

// SagaConfig wires a Saga into a Store.
type SagaConfig struct {
	// Name is the saga's own aggregate type, under which its transitions are
	// journaled.
	Name string
	// AggregateType is the triggering aggregate whose events the saga
	// consumes.
	AggregateType string
	// StartsOn is the starting predicate. An event matching it activates a
	// saga for the derived identity unless one already ran to completion.
	StartsOn func(Event) bool
	// Identity derives the saga identity from the triggering event.
	// Defaults to the event's AggregateID.
	Identity func(Event) string
	// Saga is the state machine.
	Saga Saga
	// Transitions are the SagaState shapes, for journal registration.
	Transitions []Content
}

// RegisterSaga subscribes the saga to its triggering aggregate's events.
// Aggregate and saga share the journal, so the saga's transitions replay on
// activation just like aggregate state does.
func (s *Store) RegisterSaga(cfg SagaConfig) error {
	if cfg.Name == "" || cfg.AggregateType == "" || cfg.Saga == nil || cfg.StartsOn == nil {
		return fmt.Errorf("docflow: incomplete saga config: %q", cfg.Name)
	}
	if cfg.Identity == nil {
		cfg.Identity = func(event Event) string { return event.AggregateID }
	}

	err := s.storage.Register(cfg.Name, cfg.Transitions...)
	if err != nil {
		return fmt.Errorf("docflow: registering %s transitions: %w", cfg.Name, err)
	}

	rt := newSagaRuntime(s, cfg)

	s.mux.Lock()
	if _, ok := s.sagas[cfg.Name]; ok {
		s.mux.Unlock()
		return fmt.Errorf("docflow: saga already registered: %s", cfg.Name)
	}
	s.sagas[cfg.Name] = rt
	s.mux.Unlock()

	return s.cfg.eventBus.Subscribe(s.ctx, cfg.AggregateType, "docflow.saga."+cfg.Name, rt)
}

// sagaWorker owns one saga instance. Only the worker goroutine touches the
// state fields; queue is guarded by the runtime mutex.
type sagaWorker struct {
	id    string
	queue []Event
	wake  chan struct{}

	loaded        bool
	state         SagaState
	data          SagaData
	version       int64
	correlationID string
}

func (rt *sagaRuntime) run(w *sagaWorker) {
	ctx := rt.store.ctx

	if !w.loaded {
		stopped, err := rt.replay(ctx, w)
		if err != nil {
			rt.store.cfg.logger.ErrorfCtx(ctx, "docflow: replaying saga %s/%s: %s", rt.cfg.Name, w.id, err)
			rt.retire(w, false)
			return
		}
		if stopped {
			rt.retire(w, true)
			return
		}
	}

	for {
		event, ok := rt.next(w)
		if !ok {
			return
		}

		if rt.process(ctx, w, event) {
			rt.retire(w, true)
			return
		}
	}
}

// replay rebuilds the saga from its own stream and, when it was mid-flight,
// re-runs Effects on the restored state with recovering set. It reports
// whether the restored saga ran to a stop.
func (rt *sagaRuntime) replay(ctx context.Context, w *sagaWorker) (bool, error) {
	for event, err := range rt.store.storage.Read(ctx, rt.cfg.Name, w.id, 0) {
		if err != nil {
			return false, err
		}

		state, ok := event.Content.(SagaState)
		if !ok {
			return false, fmt.Errorf("transition %d is not a saga state: %T", event.EventNumber, event.Content)
		}

		w.state = state
		w.data = rt.cfg.Saga.Fold(w.data, state)
		w.version = event.EventNumber
		w.correlationID = event.CorrelationID
	}

	w.loaded = true

	if w.state == nil {
		return false, nil
	}

	return rt.runEffects(ctx, w, true)
}

// process handles one incoming aggregate event: react, persist the
// transition, fold, then run effects. It reports whether the saga stopped.
func (rt *sagaRuntime) process(ctx context.Context, w *sagaWorker, event Event) bool {
	if w.state == nil && !rt.cfg.StartsOn(event) {
		return false
	}

	next, ok := rt.cfg.Saga.React(event, w.state)
	if !ok {
		rt.store.cfg.logger.InfofCtx(ctx, "docflow: saga %s/%s left %s unhandled",
			rt.cfg.Name, w.id, event.Content.EventName())
		return false
	}

	w.correlationID = event.CorrelationID

	err := rt.transition(ctx, w, next)
	if err != nil {
		rt.store.cfg.logger.ErrorfCtx(ctx, "docflow: saga %s/%s transition: %s", rt.cfg.Name, w.id, err)
		// Force a replay before the next event so the in-memory state never
		// runs ahead of the journal.
		w.loaded = false
		return false
	}

	stopped, err := rt.runEffects(ctx, w, false)
	if err != nil {
		rt.store.cfg.logger.ErrorfCtx(ctx, "docflow: saga %s/%s effects: %s", rt.cfg.Name, w.id, err)
		w.loaded = false
		return false
	}

	return stopped
}

// transition persists the next state in the saga's stream, publishes it and
// folds it into the saga data. Persisting strictly precedes dispatching the
// state's commands.
func (rt *sagaRuntime) transition(ctx context.Context, w *sagaWorker, next SagaState) error {
	now := time.Now()
	event := Event{
		AggregateID:   w.id,
		AggregateType: rt.cfg.Name,
		EventNumber:   w.version + 1,
		EventTime:     now,
		CorrelationID: w.correlationID,
		Content:       next,
		StoreEventID:  uuid.V7AtTime(now),
	}

	err := rt.store.storage.Append(ctx, rt.cfg.Name, w.id, w.version, seqs.Seq2(event))
	if err != nil {
		return err
	}

	w.state = next
	w.data = rt.cfg.Saga.Fold(w.data, next)
	w.version = event.EventNumber

	err = rt.store.publish(ctx, rt.cfg.Name, []Event{event})
	if err != nil {
		rt.store.cfg.logger.ErrorfCtx(ctx, "docflow: publishing saga %s/%s: %s", rt.cfg.Name, w.id, err)
	}

	return nil
}

// runEffects drives the effects loop: dispatch the current state's commands,
// then follow effect-driven advances until the saga stays put or stops.
// recovering applies only to the state entered during recovery; any state
// entered after that is a fresh entry.
func (rt *sagaRuntime) runEffects(ctx context.Context, w *sagaWorker, recovering bool) (stopped bool, err error) {
	for {
		effect := rt.cfg.Saga.Effects(ctx, w.data, w.state, recovering)
		recovering = false

		for _, cmd := range effect.Commands {
			if cmd.AggregateType == "" {
				cmd.AggregateType = rt.cfg.AggregateType
			}
			if cmd.AggregateID == "" {
				cmd.AggregateID = w.id
			}
			if cmd.CorrelationID == "" {
				cmd.CorrelationID = w.correlationID
			}

			dispatchCtx, cancel := context.WithTimeout(ctx, rt.store.cfg.dispatchTimeout)
			_, err := rt.store.Execute(dispatchCtx, cmd)
			cancel()
			if err != nil {
				// The saga stays in its persisted state; Effects re-runs on
				// the next recovery and the dispatch repeats.
				return false, fmt.Errorf("dispatching %s: %w", cmd.Content.CommandName(), err)
			}
		}

		if effect.Stop {
			return true, nil
		}

		if effect.Next == nil {
			return false, nil
		}

		err := rt.transition(ctx, w, effect.Next)
		if err != nil {
			return false, err
		}
	}
}
