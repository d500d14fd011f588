package logstore

import (
	"fmt"
	"path/filepath"
	"time"

	"glucosewatch/internal/timecodec"
)

// Month identifies one log partition.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the partition containing t in the given zone.
func MonthOf(t time.Time, loc *time.Location) Month {
	start := timecodec.MonthStart(t, loc)
	return Month{Year: start.Year(), Month: start.Month()}
}

// ParseMonth accepts the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start is the first instant of the month in loc.
func (m Month) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Prev returns the preceding month.
func (m Month) Prev() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) path(root string) string {
	return filepath.Join(root, fmt.Sprintf("%04d", m.Year), fmt.Sprintf("%02d", int(m.Month)), logFileName)
}
