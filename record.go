package sesskit

import (
	"time"

	"github.com/google/uuid"
)

// Record is a single session as a backend stores it: an opaque identifier,
// framework-owned state, and the absolute instant after which the session is
// no longer valid.
//
// Data values survive a codec round trip as the msgpack interface mapping:
// integers come back as int64, floats as float64, and nested collections as
// []any and map[string]any. Frameworks needing richer types should flatten
// them into these primitives before storing.
type Record struct {
	ID     string         `msgpack:"id"`
	Data   map[string]any `msgpack:"data"`
	Expiry time.Time      `msgpack:"expiry"`
}

// NewRecord returns an empty record with the given identity and expiry.
// The data map is allocated so callers can assign into it immediately.
func NewRecord(id string, expiry time.Time) *Record {
	return &Record{
		ID:     id,
		Data:   make(map[string]any),
		Expiry: expiry,
	}
}

// NewID returns a fresh random session identifier. Stores never mint
// identifiers; this is a convenience for frameworks and tests.
func NewID() string {
	return uuid.NewString()
}
