package docflow

import (
	"context"
	"sync"
)

// sagaRuntime is the saga starter and supervisor for one registered saga
// type. It watches the triggering aggregate's events on the bus and
// activates a worker per derived identity. Activation is idempotent: an
// already running identity just receives the event, a completed one ignores
// it.
type sagaRuntime struct {
	store *Store
	cfg   SagaConfig

	mux     sync.Mutex
	workers map[string]*sagaWorker
	done    map[string]bool
}

func newSagaRuntime(store *Store, cfg SagaConfig) *sagaRuntime {
	return &sagaRuntime{
		store:   store,
		cfg:     cfg,
		workers: make(map[string]*sagaWorker),
		done:    make(map[string]bool),
	}
}

var _ Handler = (*sagaRuntime)(nil)

// Handle runs on the publishing path and only enqueues. Replay and effects
// happen on the worker goroutine.
//
// A worker is spawned even for events that do not match the starting
// predicate: the saga may be mid-flight with its state only in the journal.
// The worker replays first and drops events that arrive before a start.
func (rt *sagaRuntime) Handle(ctx context.Context, event Event) error {
	id := rt.cfg.Identity(event)

	rt.mux.Lock()
	defer rt.mux.Unlock()

	if rt.done[id] {
		return nil
	}

	w, ok := rt.workers[id]
	if !ok {
		w = &sagaWorker{
			id:   id,
			wake: make(chan struct{}, 1),
		}
		rt.workers[id] = w
		go rt.run(w)
	}

	w.queue = append(w.queue, event)
	select {
	case w.wake <- struct{}{}:
	default:
	}

	return nil
}

// next pops the oldest queued event, blocking until one arrives or the store
// shuts down.
func (rt *sagaRuntime) next(w *sagaWorker) (Event, bool) {
	for {
		rt.mux.Lock()
		if len(w.queue) > 0 {
			event := w.queue[0]
			w.queue = w.queue[1:]
			rt.mux.Unlock()
			return event, true
		}
		rt.mux.Unlock()

		select {
		case <-w.wake:
		case <-rt.store.ctx.Done():
			rt.retire(w, false)
			return Event{}, false
		}
	}
}

// retire removes the worker. done marks the identity terminal so later
// events no longer respawn it.
func (rt *sagaRuntime) retire(w *sagaWorker, done bool) {
	rt.mux.Lock()
	defer rt.mux.Unlock()

	delete(rt.workers, w.id)
	if done {
		rt.done[w.id] = true
	}
}
