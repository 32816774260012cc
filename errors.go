package sesskit

import "errors"

// Backends wrap the underlying cause as fmt.Errorf("%w: %v", sentinel, err)
// so callers can branch with errors.Is and still see the cause in the text.
var (
	// ErrBackend is returned when the backing store fails or rejects an
	// operation (connection refused, command error, I/O failure).
	ErrBackend = errors.New("session backend failure")

	// ErrDecode is returned when stored bytes exist but cannot be decoded
	// into a [Record]. A corrupt record is never reported as a missing one.
	ErrDecode = errors.New("session record decode failed")

	// ErrEncode is returned when a [Record] cannot be serialized. Nothing
	// is written to the backend when encoding fails.
	ErrEncode = errors.New("session record encode failed")
)
