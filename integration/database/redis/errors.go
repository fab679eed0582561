package redis

import "errors"

// Sentinel errors for the Redis backend. Check with errors.Is; Connect and
// Healthcheck join them with the underlying driver error.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
