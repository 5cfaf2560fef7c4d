package inmemory

import (
	"time"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/codecs"
)

type indexKey struct {
	AggregateType string
	AggregateID   string
	EventNumber   int64
}

type streamKey struct {
	AggregateType string
	AggregateID   string
}

type tableRow struct {
	Offset        int64
	AggregateID   string
	AggregateType string
	EventNumber   int64
	CorrelationID string
	StoreEventID  string
	EventTime     string
	Content       []byte
	ContentName   string
}

type table []tableRow

func newRow(offset int64, event docflow.Event, c *codecs.JSON) (tableRow, error) {
	content, err := c.Encode(event)
	if err != nil {
		return tableRow{}, err
	}

	return tableRow{
		Offset:        offset,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventNumber:   event.EventNumber,
		CorrelationID: event.CorrelationID,
		StoreEventID:  event.StoreEventID,
		EventTime:     event.EventTime.Format(time.RFC3339Nano),
		Content:       content,
		ContentName:   event.Content.EventName(),
	}, nil
}

func (row tableRow) Event(c *codecs.JSON) (docflow.Event, error) {
	eventTime, err := time.Parse(time.RFC3339Nano, row.EventTime)
	if err != nil {
		return docflow.Event{}, err
	}

	content, err := c.Decode(row.AggregateType, row.ContentName, row.Content)
	if err != nil {
		return docflow.Event{}, err
	}

	return docflow.Event{
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventNumber:   row.EventNumber,
		EventTime:     eventTime,
		CorrelationID: row.CorrelationID,
		Content:       content,
		StoreEventID:  row.StoreEventID,
	}, nil
}
