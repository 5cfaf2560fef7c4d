package docflow

import "time"

// Content is the application specific data model used in an Event.
type Content interface {
	EventName() string
}

// Event is a combination of the metadata and content of a business event in the system.
// It is part of a per-aggregate stream that makes up the current state of a business entity.
type Event struct {
	// AggregateID is the identity of the aggregate instance the event belongs to.
	AggregateID string
	// AggregateType is the type of the aggregate the event belongs to.
	AggregateType string
	// EventNumber is the version of the aggregate after this event is applied.
	// Within one aggregate instance the numbers are gapless and start at 1.
	EventNumber int64
	// EventTime is the time the event was recorded in the Store.
	EventTime time.Time
	// CorrelationID links the event to the command that produced it.
	CorrelationID string
	// Content is the actual content of the event. Expected to be a struct defined
	// by the application.
	Content Content
	// StoreEventID is the ID of the event assigned by the Store.
	// The StoreEventID is a UUIDv7 with the underlying time matching the EventTime.
	StoreEventID string
}

// StoredEvent is an Event together with its position in the global journal.
type StoredEvent struct {
	// Offset is the global, store-wide position of the event. It orders events
	// across aggregate instances and is the cursor used by projections.
	Offset int64
	Event  Event
}
