// Package storage tracks which refresh-token hashes have been consumed.
//
// Two variants implement [Manager]:
//
//   - [MemoryStore] keeps used hashes in a process-local set. State is lost on restart and
//     is not shared between instances.
//   - [RedisStore] keeps used hashes in a shared Redis keyspace with a 730-day TTL. The
//     check-and-mark step runs as a single Lua script so concurrent callers on different
//     instances cannot both consume the same hash.
//
// Both variants report a consumed hash with [ErrTokenAlreadyUsed]. Backend failures are
// reported with [ErrStorageUnavailable] so callers can tell a transient outage from a
// replay attempt.
package storage
