package docflow

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fanoutLimit bounds how many subscribers are called concurrently per event.
const fanoutLimit = 10

func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subList: make(map[string][]subscriber),
		subMap:  make(map[string]map[string]subscriber),
	}
}

var _ EventBus = (*InMemoryEventBus)(nil)

type InMemoryEventBus struct {
	mux     sync.RWMutex
	subList map[string][]subscriber
	subMap  map[string]map[string]subscriber
}

func (bus *InMemoryEventBus) GetSubscriberIDs(ctx context.Context, aggregateType string) ([]string, error) {
	bus.mux.RLock()
	defer bus.mux.RUnlock()

	return slices.Collect(maps.Keys(bus.subMap[aggregateType])), nil
}

func (bus *InMemoryEventBus) Write(ctx context.Context, aggregateType string, events iter.Seq2[Event, error]) error {
	bus.mux.RLock()
	subs := bus.subList[aggregateType]
	bus.mux.RUnlock()
	if len(subs) == 0 {
		return nil
	}

	for event, err := range events {
		if err != nil {
			return err
		}

		err := bus.publish(ctx, event, subs)
		if err != nil {
			return err
		}
	}

	return nil
}

func (bus *InMemoryEventBus) publish(ctx context.Context, event Event, subs []subscriber) error {
	var g errgroup.Group
	g.SetLimit(fanoutLimit)
	for _, sub := range subs {
		g.Go(func() error {
			return sub.Handle(ctx, event)
		})
	}

	return g.Wait()
}

func (bus *InMemoryEventBus) Subscribe(ctx context.Context, aggregateType, subscriberID string, handler Handler) error {
	bus.mux.Lock()
	defer bus.mux.Unlock()

	sub := &eventBusHandler{
		id:      subscriberID,
		handler: handler,
	}
	if _, ok := bus.subMap[aggregateType]; !ok {
		bus.subMap[aggregateType] = make(map[string]subscriber)
	}

	if _, ok := bus.subMap[aggregateType][subscriberID]; ok {
		return fmt.Errorf("subscriber already exists: %s.%s", aggregateType, sub.ID())
	}

	bus.subMap[aggregateType][subscriberID] = sub
	bus.subList[aggregateType] = append(bus.subList[aggregateType], sub)

	return nil
}

func (bus *InMemoryEventBus) Close() error {
	return nil
}

type subscriber interface {
	Handler
	ID() string
}

type eventBusHandler struct {
	id      string
	handler Handler
}

func (h *eventBusHandler) Handle(ctx context.Context, event Event) error {
	return h.handler.Handle(ctx, event)
}

func (h *eventBusHandler) ID() string {
	return h.id
}
