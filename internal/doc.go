// Package internal groups helpers private to jwtauth.
//
//   - flows: the refresh exchange as a pure function over injected dependencies
//   - rate: the Redis fixed-window refresh throttle
package internal
