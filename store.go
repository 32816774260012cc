package sesskit

import "context"

// Store persists session records in a backend keyed by record ID.
//
// Implementations must follow the contract in the package documentation:
// overwrite on save, (nil, nil) on absent load, idempotent delete, and
// errors classified by the package sentinels.
type Store interface {
	// Save writes the record under its ID, replacing any prior record and
	// its expiry. The record becomes invalid at rec.Expiry.
	Save(ctx context.Context, rec *Record) error

	// Load returns the record stored under id, or (nil, nil) when no live
	// record exists. Corrupt payloads surface as [ErrDecode], never as
	// absence.
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes the record stored under id. Deleting an absent record
	// is not an error.
	Delete(ctx context.Context, id string) error
}
