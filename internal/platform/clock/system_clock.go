package clock

import "time"

// SystemClock reads the wall clock in a fixed zone. Photo dates and times are rendered in
// that zone, so it should be the zone the travelers shoot in.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock uses loc, or the process's local zone when loc is nil.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{loc: loc}
}

func (c SystemClock) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}
