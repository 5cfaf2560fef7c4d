package docflow

import (
	"context"
	"iter"
)

// EventBus is responsible for distributing an Event to all subscribing
// Handlers after it is durably appended to the Storage.
//
// Handlers run on the publishing path. They must be fast and enqueue-only;
// a Handler that blocks delays the command acknowledgement that triggered
// the publish.
type EventBus interface {
	// Write should write the events to all subscriptions
	Write(ctx context.Context, aggregateType string, events iter.Seq2[Event, error]) error
	// Subscribe a Handler by its subscriberID
	Subscribe(ctx context.Context, aggregateType string, subscriberID string, handler Handler) error
	// GetSubscriberIDs returns a list of all subscriber IDs for the aggregateType
	GetSubscriberIDs(ctx context.Context, aggregateType string) ([]string, error)
	Close() error
}
