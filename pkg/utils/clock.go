package utils

import "time"

// Clock abstracts wall-clock reads so time-dependent code can be driven from tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
