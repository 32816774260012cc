// Package sesskit defines the session record model, the binary wire codec,
// and the store contract shared by every storage backend in this module.
//
// A [Record] is an opaque unit of session state: an identifier, an arbitrary
// data map, and an absolute expiry instant. Backends persist records without
// interpreting them. Lifecycle policy (when to mint, rotate, or extend a
// session) belongs to the calling framework.
//
// # Store contract
//
// Every backend implements [Store] with the same observable semantics. Save
// overwrites unconditionally and honors the record's absolute expiry. Load
// returns (nil, nil) when a record is absent or expired, reserving errors for
// real failures. Delete is idempotent. Failures are classified through
// [ErrBackend], [ErrDecode], and [ErrEncode] so callers can branch with
// errors.Is without knowing which backend is in use.
//
// # Architecture boundaries
//
// sesskit is the shared surface imported by the backend packages (redistore,
// memstore, filestore, otelstore, and the gormstore and mysqlstore
// submodules). It owns the [Record] model, the [Codec] wire format, and the
// error taxonomy. Backend packages import sesskit, never each other.
//
// # What this package must NOT do
//
//   - Open network connections or touch disk. Only backends perform I/O.
//   - Retry, cache, or impose timeouts around store calls. Callers own policy.
//   - Inspect or validate the contents of [Record.Data].
package sesskit
