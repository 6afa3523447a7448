// Package refresh derives the replay-tracking key for single-use refresh tokens.
//
// # Hash format
//
// A token hash is the SHA-1 digest of the exact serialized token string, rendered as 40
// lowercase hex characters. Two token strings that encode the same claims still hash
// independently; replay state is keyed strictly on the wire string.
//
// # Architecture boundaries
//
// This package owns hashing and hash-shape validation only. Deciding whether a hash has
// been consumed belongs to the storage package; running the refresh protocol belongs to
// the service.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import jwtauth, jwt, or storage.
package refresh
