package errs

import (
	"strconv"
	"time"
)

// ParseRetryAfter reads a Retry-After header value in seconds. HTTP-date
// values are not produced by the services this module talks to.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
