// Package reading models a single glucose sample as delivered by the telemetry source.
package reading

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SameSampleTolerance is the widest timestamp gap at which two equal readings count as one sample.
const SameSampleTolerance = 10 * time.Second

// Units selects how glucose values are expressed.
type Units string

const (
	MmolL Units = "mmol/L"
	MgdL  Units = "mg/dL"
)

var mgdlPerMmol = decimal.NewFromInt(18)

// ParseUnits normalises the spellings accepted in configuration.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "mmol/l", "mmoll", "mmol":
		return MmolL, nil
	case "mg/dl", "mgdl", "mg":
		return MgdL, nil
	default:
		return "", fmt.Errorf("unknown glucose units %q", s)
	}
}

// FromMgdl converts a raw mg/dL figure into units.
func FromMgdl(v float64, units Units) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d := decimal.NewFromFloat(v)
	if units == MmolL {
		return d.Div(mgdlPerMmol).Round(1).InexactFloat64()
	}
	return d.Round(0).InexactFloat64()
}

// Reading is one immutable sample.
type Reading struct {
	Value     float64
	Delta     float64
	Timestamp time.Time
	Trend     Trend
	// Stale is set when the source itself flags the sample as outdated.
	Stale bool
}

// SameSample reports whether a and b describe the same upstream sample: equal values
// with timestamps no more than SameSampleTolerance apart.
func SameSample(a, b Reading) bool {
	if a.Value != b.Value {
		return false
	}
	gap := a.Timestamp.Sub(b.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	return gap <= SameSampleTolerance
}

// Age is the time elapsed since the reading was taken.
func (r Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}

// Label renders the tray label, e.g. "6.1 mmol/L +0.2 🢂".
func (r Reading) Label(units Units) string {
	return fmt.Sprintf("%s %s %s %s", formatValue(r.Value, units), units, formatDelta(r.Delta, units), r.Trend.Symbol())
}

// LastUpdated renders "Last update: 15:04:05, 3 minutes ago".
func (r Reading) LastUpdated(now time.Time) string {
	minutes := int(math.Round(r.Age(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	suffix := "s"
	if minutes == 1 {
		suffix = ""
	}
	return fmt.Sprintf("Last update: %s, %d minute%s ago", r.Timestamp.Format("15:04:05"), minutes, suffix)
}

func formatValue(v float64, units Units) string {
	if math.IsNaN(v) {
		return "--"
	}
	if units == MmolL {
		return decimal.NewFromFloat(v).StringFixed(1)
	}
	return decimal.NewFromFloat(v).StringFixed(0)
}

func formatDelta(v float64, units Units) string {
	if math.IsNaN(v) {
		return "?"
	}
	places := int32(0)
	if units == MmolL {
		places = 1
	}
	d := decimal.NewFromFloat(v).Round(places)
	if d.Sign() >= 0 {
		// Round can leave a negative zero in the float; decimal's sign is authoritative.
		return "+" + d.Abs().StringFixed(places)
	}
	return d.StringFixed(places)
}
