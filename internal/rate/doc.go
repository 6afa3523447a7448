// Package rate provides the Redis-backed fixed-window counter used to throttle refresh
// token exchanges per client.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:rr:<client>" where client is usually the caller's IP address.
//
// # What this package must NOT do
//
//   - Decide which client key applies to a request (the caller supplies it).
//   - Be imported outside the jwtauth module.
package rate
