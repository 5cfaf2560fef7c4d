package uuid

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// V7 returns a new UUIDv7 based on the current time.
func V7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// V7AtTime returns a new UUIDv7 with the underlying timestamp set to t.
func V7AtTime(t time.Time) string {
	gen := uuid.NewGenWithOptions(
		uuid.WithEpochFunc(func() time.Time { return t }),
	)

	return uuid.Must(gen.NewV7()).String()
}

// V7At returns count UUIDv7 values starting at t, spaced a millisecond apart
// so the list sorts in generation order.
func V7At(t time.Time, count int) []string {
	var ids = make([]string, 0, count)
	for i := range count {
		ids = append(ids, V7AtTime(t.Add(time.Duration(i)*time.Millisecond)))
	}

	return ids
}
