// Package timecodec converts between absolute instants and the month-relative
// second offsets stored in the reading log.
package timecodec

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimestamp is returned when an instant precedes the month start it is encoded against.
var ErrInvalidTimestamp = errors.New("timecodec: timestamp precedes month start")

// Zone returns the fixed UTC offset location used for month partitioning.
func Zone(offsetHours int) *time.Location {
	if offsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// MonthStart returns day 1, 00:00:00 of the month containing t, evaluated in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// Encode returns the whole seconds elapsed between monthStart and t.
func Encode(t, monthStart time.Time) (int64, error) {
	if t.Before(monthStart) {
		return 0, fmt.Errorf("%w: %s before %s", ErrInvalidTimestamp, t.Format(time.RFC3339), monthStart.Format(time.RFC3339))
	}
	return int64(t.Sub(monthStart) / time.Second), nil
}

// Decode reverses Encode.
func Decode(offset int64, monthStart time.Time) time.Time {
	return monthStart.Add(time.Duration(offset) * time.Second)
}
