// Package jwtauth issues, verifies and refreshes RS256-signed JWTs, and makes refresh
// tokens single-use.
//
// A [Service] holds one RSA keypair, the token lifetimes and an optional
// [storage.Manager] that records the SHA-1 hash of every consumed refresh token.
// [Service.ExecuteRefreshToken] verifies a refresh token, marks its hash used in one
// atomic step and returns a new refresh/access pair; presenting the same token again
// fails with [ErrTokenAlreadyUsed].
//
// Service methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// jwtauth is the public surface. It exposes [Service], [Builder], [Config] and value
// types (Claims, RefreshResult, MetricsSnapshot). Flow orchestration and rate limiting
// live under internal/ and are never exported. Cryptography is delegated to package jwt;
// replay state to package storage.
//
// # What this package must NOT do
//
//   - Keep package-level mutable state. Every Service is independent.
//   - Retry storage operations. Errors are returned to the caller unchanged.
//   - Import any sub-package that re-imports jwtauth (no import cycles).
package jwtauth
