package services

import "time"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return now
}

// FixedClock always returns the same instant. Useful in tests.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// normalizeTime strips the monotonic reading and location so stamped
// times compare equal to their decoded form.
func normalizeTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}
