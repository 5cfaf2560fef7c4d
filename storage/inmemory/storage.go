package inmemory

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/codecs"
)

func New() *Storage {
	return &Storage{
		uniqueIndex: make(map[indexKey]int),
		versions:    make(map[streamKey]int64),
		codec:       codecs.NewJSON(),
		wake:        make(chan struct{}),
	}
}

var _ docflow.Storage = (*Storage)(nil)

// Storage is an in-memory journal. Events live in a single global table in
// append order; per-stream access goes through a unique (type, id, number)
// index. It is the reference Storage used in tests and the demo binary.
type Storage struct {
	mux         sync.RWMutex
	table       table
	uniqueIndex map[indexKey]int
	versions    map[streamKey]int64
	codec       *codecs.JSON
	wake        chan struct{}
	closed      bool
}

func (s *Storage) Register(aggregateType string, types ...docflow.Content) error {
	return s.codec.Register(aggregateType, types...)
}

func (s *Storage) Append(ctx context.Context, aggregateType, aggregateID string, expectedVersion int64, events iter.Seq2[docflow.Event, error]) error {
	var collected []docflow.Event
	for event, err := range events {
		if err != nil {
			return err
		}
		collected = append(collected, event)
	}
	if len(collected) == 0 {
		return nil
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.closed {
		return fmt.Errorf("storage is closed")
	}

	key := streamKey{AggregateType: aggregateType, AggregateID: aggregateID}
	if s.versions[key] != expectedVersion {
		return fmt.Errorf("%w: stream %s/%s at %d, expected %d",
			docflow.ErrVersionConflict, aggregateType, aggregateID, s.versions[key], expectedVersion)
	}

	for i, event := range collected {
		want := expectedVersion + int64(i) + 1
		if event.EventNumber != want {
			return fmt.Errorf("event number mismatch: expected %d, got %d", want, event.EventNumber)
		}
	}

	for _, event := range collected {
		offset := int64(len(s.table)) + 1
		row, err := newRow(offset, event, s.codec)
		if err != nil {
			return err
		}

		s.table = append(s.table, row)
		s.uniqueIndex[indexKey{
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			EventNumber:   event.EventNumber,
		}] = len(s.table) - 1
	}

	s.versions[key] = collected[len(collected)-1].EventNumber
	s.broadcast()

	return nil
}

// broadcast wakes all global subscribers. Callers must hold mux.
func (s *Storage) broadcast() {
	close(s.wake)
	s.wake = make(chan struct{})
}

func (s *Storage) Read(ctx context.Context, aggregateType, aggregateID string, afterVersion int64) iter.Seq2[docflow.Event, error] {
	return func(yield func(docflow.Event, error) bool) {
		s.mux.RLock()
		defer s.mux.RUnlock()

		key := indexKey{
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			EventNumber:   afterVersion + 1,
		}

		for {
			rowIndex, ok := s.uniqueIndex[key]
			if !ok {
				return
			}

			event, err := s.table[rowIndex].Event(s.codec)
			if err != nil {
				yield(docflow.Event{}, err)
				return
			}

			if !yield(event, nil) {
				return
			}

			key.EventNumber = key.EventNumber + 1
		}
	}
}

func (s *Storage) SubscribeGlobal(ctx context.Context, fromOffset int64) iter.Seq2[docflow.StoredEvent, error] {
	return func(yield func(docflow.StoredEvent, error) bool) {
		next := fromOffset + 1
		for {
			s.mux.RLock()
			wake := s.wake
			closed := s.closed
			var rows table
			if next <= int64(len(s.table)) {
				rows = append(rows, s.table[next-1:]...)
			}
			s.mux.RUnlock()

			for _, row := range rows {
				event, err := row.Event(s.codec)
				if err != nil {
					yield(docflow.StoredEvent{}, err)
					return
				}

				if !yield(docflow.StoredEvent{Offset: row.Offset, Event: event}, nil) {
					return
				}

				next = row.Offset + 1
			}

			if closed {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	}
}

func (s *Storage) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.broadcast()

	return nil
}
