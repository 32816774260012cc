// Package redistore persists session records in Redis.
//
// Each record is stored as a single string value under [KeyPrefix] plus the
// record ID, written with SET and an absolute EXAT deadline so Redis evicts
// expired sessions on its own. The store accepts any
// [github.com/redis/go-redis/v9.UniversalClient]: standalone, cluster,
// sentinel failover, or ring.
//
// # Architecture boundaries
//
// This package owns the Redis keyspace layout and nothing else. Encoding is
// delegated to [sesskit.MsgpackCodec]; the lifecycle contract is defined by
// [sesskit.Store].
//
// # What this package must NOT do
//
//   - Scan, enumerate, or garbage-collect keys. Redis expiration owns cleanup.
//   - Retry, cache, or impose timeouts. Policy belongs to the client options.
//   - Interpret record data.
package redistore
