package docflow

import (
	"context"
	"errors"
	"iter"
)

// ErrVersionConflict is returned by Storage.Append when the expected version
// does not match the stream. The caller lost a write race and must re-read.
var ErrVersionConflict = errors.New("docflow: version conflict")

// Storage abstracts the durable event journal of a Store.
type Storage interface {
	// Read the events of an aggregate instance with an EventNumber greater
	// than afterVersion, in EventNumber order.
	Read(ctx context.Context, aggregateType, aggregateID string, afterVersion int64) iter.Seq2[Event, error]
	// Append writes the events to the instance's stream. The write is atomic:
	// either all events are durable or none are. expectedVersion is the
	// EventNumber of the last event already in the stream (0 for a new
	// stream); on mismatch Append fails with ErrVersionConflict.
	Append(ctx context.Context, aggregateType, aggregateID string, expectedVersion int64, events iter.Seq2[Event, error]) error
	// SubscribeGlobal returns a lazy, blocking sequence of all events in the
	// journal with an Offset greater than fromOffset, across all aggregate
	// types, in Offset order. The sequence follows the live tail and only
	// ends when ctx is done or the Storage closes.
	SubscribeGlobal(ctx context.Context, fromOffset int64) iter.Seq2[StoredEvent, error]
	// Register allows the Storage to unmarshal multiple shapes of Content for
	// an aggregateType. It is an error for a stream to contain a shape of
	// Content that has not been registered.
	Register(aggregateType string, types ...Content) error
	// Close is called when the Store is shutting down and allows the Storage
	// to close all background processes.
	Close() error
}
