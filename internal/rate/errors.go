package rate

import "errors"

var (
	// ErrRateLimited is returned once a client exceeds its refresh budget for the window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter read/write failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
