// Package clock abstracts the wall clock for chat timestamps, room audit
// times and token expiry checks.
package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock
type Func func() time.Time

// Now calls f
func (f Func) Now() time.Time {
	return f()
}

// New returns the system clock in UTC, the zone every store persists
func New() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}
