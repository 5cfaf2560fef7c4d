package docflow

import (
	"context"
	"fmt"
	"sync"
)

// Correlation is a one-shot subscription against the event flow, created
// with Store.SubscribeCorrelation. It resolves once the configured number of
// matching events was observed and can be cancelled at any time.
type Correlation struct {
	ch     chan Event
	cancel func()
}

// Wait blocks until the next matching event, the subscription is exhausted
// or cancelled, or ctx is done.
func (c *Correlation) Wait(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, fmt.Errorf("docflow: awaiting correlation: %w", ctx.Err())
	case event, ok := <-c.ch:
		if !ok {
			return Event{}, fmt.Errorf("docflow: correlation cancelled")
		}
		return event, nil
	}
}

// Cancel removes the subscription. Safe to call more than once.
func (c *Correlation) Cancel() {
	c.cancel()
}

type correlationEntry struct {
	predicate func(Event) bool
	remaining int
	sub       *Correlation
}

// correlations is the process wide fabric matching published events and
// rejections against pending subscriptions.
type correlations struct {
	mux     sync.Mutex
	entries map[*Correlation]*correlationEntry
}

func newCorrelations() *correlations {
	return &correlations{
		entries: make(map[*Correlation]*correlationEntry),
	}
}

func (c *correlations) subscribe(predicate func(Event) bool, count int) *Correlation {
	if count < 1 {
		count = 1
	}

	sub := &Correlation{
		ch: make(chan Event, count),
	}
	entry := &correlationEntry{
		predicate: predicate,
		remaining: count,
		sub:       sub,
	}
	sub.cancel = func() {
		c.mux.Lock()
		defer c.mux.Unlock()
		if _, ok := c.entries[sub]; ok {
			delete(c.entries, sub)
			close(sub.ch)
		}
	}

	c.mux.Lock()
	c.entries[sub] = entry
	c.mux.Unlock()

	return sub
}

// offer matches the event against all pending subscriptions. The channel is
// buffered to the subscription count, so delivery never blocks the
// publishing path.
func (c *correlations) offer(event Event) {
	c.mux.Lock()
	defer c.mux.Unlock()

	for sub, entry := range c.entries {
		if !entry.predicate(event) {
			continue
		}

		entry.remaining--
		sub.ch <- event
		if entry.remaining == 0 {
			delete(c.entries, sub)
			close(sub.ch)
		}
	}
}
