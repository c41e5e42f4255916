package clock

import "time"

// Clock abstracts the time source so lifecycle logic can be tested with a
// fixed time.
type Clock interface {
	Now() time.Time
}

// DefaultClock implements Clock using the system clock.
type DefaultClock struct{}

// New returns a system-clock backed Clock.
func New() *DefaultClock {
	return &DefaultClock{}
}

// Now returns the current time.
func (c *DefaultClock) Now() time.Time {
	return time.Now()
}
