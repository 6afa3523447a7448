// Package flows contains the pure-function orchestrator behind Service.ExecuteRefreshToken.
//
// RunRefresh accepts a typed dependency struct and returns a result describing either the
// issued token pair or the step that failed. The root package maps failure kinds to
// metrics, audit events and logs.
//
// # Architecture boundaries
//
// The flow coordinates calls to the verifier, the used-token store, the refresh rate
// limiter and the token issuer. It does NOT own any of these resources; ownership stays
// with the Service.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import jwtauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
