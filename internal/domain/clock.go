package domain

import "time"

// Clock supplies the current time. Anything time-dependent takes a Clock so tests
// can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time { return f.T }
