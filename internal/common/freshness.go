package common

import "time"

// FreshnessQuote is how long a cached real-time quote is served.
const FreshnessQuote = 15 * time.Second

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
