package timing

import "time"

// Clock returns current time
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall clock time
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock returns preset time, used in tests and in one-shot commands
type FixedClock struct {
	At time.Time
}

// Now returns preset time
func (c *FixedClock) Now() time.Time {
	return c.At
}

// Add moves the clock forward
func (c *FixedClock) Add(d time.Duration) {
	c.At = c.At.Add(d)
}
