package clock

import (
	"time"

	"sevabook/pkg/date"
)

// Clock supplies "today" normalized to midnight. Injected so the lead-time
// rule can be exercised against any date in tests.
type Clock interface {
	Today() date.Date
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock reads the wall clock in the process-local timezone.
func NewSystemClock() Clock {
	return &systemClock{loc: time.Local}
}

func (c *systemClock) Today() date.Date {
	return date.FromTime(time.Now().In(c.loc))
}

// Fixed returns a clock pinned to a single date.
func Fixed(d date.Date) Clock {
	return fixedClock{d: d}
}

type fixedClock struct {
	d date.Date
}

func (c fixedClock) Today() date.Date {
	return c.d
}
