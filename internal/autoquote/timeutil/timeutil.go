package timeutil

import "time"

const dayLayout = "2006-01-02"

// Clock supplies the current time. Engine code never reads the wall clock directly.
type Clock interface {
	Now() time.Time
}

// LoadLocation returns the named zone, falling back to a fixed UTC+5 offset
// for Asia/Almaty when tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Almaty"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == "Asia/Almaty" {
			return time.FixedZone(name, 5*60*60)
		}
		return time.UTC
	}
	return loc
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

// NewSystemClock constructs a clock for the named zone.
func NewSystemClock(zone string) SystemClock {
	return SystemClock{Loc: LoadLocation(zone)}
}

// Now returns the current time in the clock location.
func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// Day returns the calendar day of t in its own location, as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD day in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, day, loc)
}
