package docflow

import (
	"context"
	"fmt"
	"time"

	"github.com/kyuff/docflow/internal/seqs"
	"github.com/kyuff/docflow/internal/uuid"
)

type entityKey struct {
	AggregateType string
	AggregateID   string
}

type envelope struct {
	cmd   Command
	reply chan commandResult
}

type commandResult struct {
	event Event
	err   error
}

// entityWorker owns one aggregate instance. All fields besides queue are
// touched only by the worker goroutine; queue is guarded by the registry
// mutex.
type entityWorker struct {
	key     entityKey
	machine StateMachine
	queue   []envelope
	wake    chan struct{}

	loaded  bool
	state   State
	version int64
}

// entityRegistry locates and supervises entity workers. One goroutine runs
// per active aggregate instance and drains its queue in order, which is the
// sole mechanism behind per-entity linearizability. Idle workers retire after
// idleTimeout; retirement only happens with an empty queue, so a command in
// flight always completes first.
type entityRegistry struct {
	store   *Store
	workers map[entityKey]*entityWorker
}

func newEntityRegistry(store *Store) *entityRegistry {
	return &entityRegistry{
		store:   store,
		workers: make(map[entityKey]*entityWorker),
	}
}

func (r *entityRegistry) execute(ctx context.Context, machine StateMachine, cmd Command) (Event, error) {
	env := envelope{
		cmd:   cmd,
		reply: make(chan commandResult, 1),
	}

	r.enqueue(machine, cmd, env)

	select {
	case <-ctx.Done():
		return Event{}, fmt.Errorf("docflow: awaiting command %s: %w", cmd.Content.CommandName(), ctx.Err())
	case res := <-env.reply:
		return res.event, res.err
	}
}

func (r *entityRegistry) enqueue(machine StateMachine, cmd Command, env envelope) {
	key := entityKey{AggregateType: cmd.AggregateType, AggregateID: cmd.AggregateID}

	r.store.mux.Lock()
	defer r.store.mux.Unlock()

	w, ok := r.workers[key]
	if !ok {
		w = &entityWorker{
			key:     key,
			machine: machine,
			wake:    make(chan struct{}, 1),
		}
		r.workers[key] = w
		go r.run(w)
	}

	w.queue = append(w.queue, env)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (r *entityRegistry) run(w *entityWorker) {
	for {
		env, ok := r.next(w)
		if !ok {
			return
		}

		env.reply <- r.process(w, env.cmd)
	}
}

// next pops the oldest queued command, blocking until one arrives. It
// returns false once the worker retired (idle with an empty queue) or the
// store shut down.
func (r *entityRegistry) next(w *entityWorker) (envelope, bool) {
	idle := time.NewTimer(r.store.cfg.idleTimeout)
	defer idle.Stop()

	for {
		r.store.mux.Lock()
		if len(w.queue) > 0 {
			env := w.queue[0]
			w.queue = w.queue[1:]
			r.store.mux.Unlock()
			return env, true
		}
		r.store.mux.Unlock()

		select {
		case <-w.wake:
		case <-idle.C:
			r.store.mux.Lock()
			if len(w.queue) == 0 {
				delete(r.workers, w.key)
				r.store.mux.Unlock()
				return envelope{}, false
			}
			r.store.mux.Unlock()
		case <-r.store.ctx.Done():
			r.store.mux.Lock()
			for _, env := range w.queue {
				env.reply <- commandResult{err: fmt.Errorf("docflow: store closed: %w", r.store.ctx.Err())}
			}
			w.queue = nil
			delete(r.workers, w.key)
			r.store.mux.Unlock()
			return envelope{}, false
		}
	}
}

func (r *entityRegistry) process(w *entityWorker, cmd Command) commandResult {
	ctx := r.store.ctx

	if !w.loaded {
		err := r.replay(ctx, w)
		if err != nil {
			return commandResult{err: fmt.Errorf("docflow: replaying %s/%s: %w", w.key.AggregateType, w.key.AggregateID, err)}
		}
	}

	decision := w.machine.Decide(cmd, w.state)
	switch decision.kind {
	case decisionPersist:
		return r.persist(ctx, w, cmd, decision.events)
	case decisionReject:
		return r.reject(w, cmd, decision.rejection)
	default:
		r.store.cfg.logger.InfofCtx(ctx, "docflow: ignored command %s on %s/%s at version %d",
			cmd.Content.CommandName(), w.key.AggregateType, w.key.AggregateID, w.version)
		return commandResult{}
	}
}

func (r *entityRegistry) replay(ctx context.Context, w *entityWorker) error {
	w.state = w.machine.NewState()
	w.version = 0

	for event, err := range r.store.storage.Read(ctx, w.key.AggregateType, w.key.AggregateID, 0) {
		if err != nil {
			return err
		}

		err = w.state.Handle(ctx, event)
		if err != nil {
			return err
		}

		w.version = event.EventNumber
	}

	w.loaded = true

	return nil
}

func (r *entityRegistry) persist(ctx context.Context, w *entityWorker, cmd Command, contents []Content) commandResult {
	var (
		now    = time.Now()
		ids    = uuid.V7At(now, len(contents))
		events = make([]Event, 0, len(contents))
	)

	for i, content := range contents {
		events = append(events, Event{
			AggregateID:   w.key.AggregateID,
			AggregateType: w.key.AggregateType,
			EventNumber:   w.version + int64(i) + 1,
			EventTime:     now,
			CorrelationID: cmd.CorrelationID,
			Content:       content,
			StoreEventID:  ids[i],
		})
	}

	err := r.store.storage.Append(ctx, w.key.AggregateType, w.key.AggregateID, w.version, seqs.Seq2(events...))
	if err != nil {
		// The command is not applied. Decide is pure, so the caller can
		// retry against the unchanged state.
		return commandResult{err: fmt.Errorf("docflow: appending %s/%s: %w", w.key.AggregateType, w.key.AggregateID, err)}
	}

	for _, event := range events {
		err = w.state.Handle(ctx, event)
		if err != nil {
			// State is suspect after a partial fold. Drop it and rebuild by
			// replay on the next command; the events are already durable.
			w.loaded = false
			return commandResult{err: fmt.Errorf("docflow: applying %s/%s: %w", w.key.AggregateType, w.key.AggregateID, err)}
		}
		w.version = event.EventNumber
	}

	err = r.store.publish(ctx, w.key.AggregateType, events)
	if err != nil {
		r.store.cfg.logger.ErrorfCtx(ctx, "docflow: publishing %s/%s: %s", w.key.AggregateType, w.key.AggregateID, err)
	}

	return commandResult{event: events[len(events)-1]}
}

func (r *entityRegistry) reject(w *entityWorker, cmd Command, content Content) commandResult {
	event := Event{
		AggregateID:   w.key.AggregateID,
		AggregateType: w.key.AggregateType,
		EventNumber:   w.version,
		EventTime:     time.Now(),
		CorrelationID: cmd.CorrelationID,
		Content:       content,
		StoreEventID:  uuid.V7(),
	}

	// Rejections are not appended and not published on the bus; they resolve
	// the caller and any matching correlation subscription.
	r.store.correlations.offer(event)

	return commandResult{event: event, err: &Rejection{Event: event}}
}
