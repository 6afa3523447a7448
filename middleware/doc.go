// Package middleware adapts a [jwtauth.Service] to net/http.
//
// [RequireAccessToken] and [Guard] read the Authorization bearer token, verify it and
// store the claims in the request context. [RefreshHandler] exposes the single-use
// refresh exchange as a JSON endpoint.
//
// The package only translates HTTP semantics. Token parsing, replay detection and
// throttling all stay inside the Service.
package middleware
