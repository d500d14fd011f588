// Package classify maps a reading onto the range class and staleness shown by the status icon.
package classify

import (
	"math"
	"time"

	"glucosewatch/internal/reading"
)

// Range is the threshold bucket of a value.
type Range int

const (
	InRange Range = iota
	Low
	High
)

func (r Range) String() string {
	switch r {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "in_range"
	}
}

// Thresholds bound the in-range band. Low is inclusive for InRange, High is inclusive for High.
type Thresholds struct {
	Low        float64
	High       float64
	StaleAfter time.Duration
}

// State is the display classification of a reading.
type State struct {
	Range Range
	Stale bool
}

// ClassifyValue places v against the thresholds. NaN is treated as Low.
func ClassifyValue(v float64, th Thresholds) Range {
	switch {
	case math.IsNaN(v) || v < th.Low:
		return Low
	case v >= th.High:
		return High
	default:
		return InRange
	}
}

// Classify derives the display state of r at now.
func Classify(r reading.Reading, now time.Time, th Thresholds) State {
	return State{
		Range: ClassifyValue(r.Value, th),
		Stale: r.Stale || r.Age(now) > th.StaleAfter,
	}
}

// Icon returns the icon key for the state.
func (s State) Icon() IconKey {
	return IconKey{Range: s.Range, Stale: s.Stale}
}

// IconKey selects one of the six status icons.
type IconKey struct {
	Range Range
	Stale bool
}

// Colour is the icon colour: green in range, yellow high, red low.
func (k IconKey) Colour() string {
	switch k.Range {
	case High:
		return "yellow"
	case Low:
		return "red"
	default:
		return "green"
	}
}

// String is the icon name, prefixed with "x-" when stale.
func (k IconKey) String() string {
	if k.Stale {
		return "x-" + k.Colour()
	}
	return k.Colour()
}
