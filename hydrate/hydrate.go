// Package hydrate retries a read-model lookup with backoff until the loaded
// value passes a readiness check. Projections are asynchronous; hydrate is
// what gives a caller read-your-writes on top of them.
package hydrate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// LoadFunc fetches the current value for an id. A value that is not (yet)
// present is reported by returning the zero value with a nil error; the
// checker then decides whether to keep retrying.
type LoadFunc[T any] func(ctx context.Context, id string) (T, error)

type Hydrater[T any] struct {
	load LoadFunc[T]
	cfg  *Config[T]
}

func New[T any](load LoadFunc[T], opts ...Option[T]) *Hydrater[T] {
	return &Hydrater[T]{
		load: load,
		cfg: applyOptions(
			defaultOptions[T](),
			opts...,
		),
	}
}

func (h *Hydrater[T]) Hydrate(ctx context.Context, id string) (T, error) {
	var (
		result  = make(chan T)
		errChan = make(chan error)
		done    = atomic.Bool{}
	)

	defer func() {
		done.Store(true)
	}()

	go func() {
		retries := 0
		for !done.Load() {
			value, err := h.load(ctx, id)
			if err != nil {
				errChan <- fmt.Errorf("loading %s: %w", id, err)
				return
			}

			if h.cfg.checker(value) {
				result <- value
				return
			}

			retries++
			time.Sleep(h.cfg.backoff(value, retries))
		}
	}()

	select {
	case <-ctx.Done():
		var empty T
		return empty, ctx.Err()
	case err := <-errChan:
		var empty T
		return empty, err
	case value := <-result:
		return value, nil
	}
}
