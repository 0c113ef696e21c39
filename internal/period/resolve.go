package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		values[i] = v
	}

	return TimeOfDay{Hour: values[0], Minute: values[1], Second: values[2]}, nil
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Resolve returns the instant at timeOfDay (midnight when nil) on the local
// calendar date dayOffset days after anchor's date in zone.
func Resolve(anchor time.Time, dayOffset int, timeOfDay *TimeOfDay, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}

	y, m, d := anchor.In(zone).Date()
	var hour, minute, second int
	if timeOfDay != nil {
		hour, minute, second = timeOfDay.Hour, timeOfDay.Minute, timeOfDay.Second
	}

	return time.Date(y, m, d+dayOffset, hour, minute, second, 0, zone)
}

// StartOfDay returns local midnight of t's date in zone.
func StartOfDay(t time.Time, zone *time.Location) time.Time {
	return Resolve(t, 0, nil, zone)
}

// DaysBetween counts calendar days from a's local date to b's local date.
func DaysBetween(a, b time.Time, zone *time.Location) int {
	if zone == nil {
		zone = time.UTC
	}
	ay, am, ad := a.In(zone).Date()
	by, bm, bd := b.In(zone).Date()
	// Noon UTC keeps the division exact regardless of zone offsets.
	start := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
