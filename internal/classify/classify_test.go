package classify

import (
	"math"
	"testing"
	"time"

	"glucosewatch/internal/reading"
)

var testThresholds = Thresholds{Low: 3.9, High: 8.0, StaleAfter: 20 * time.Minute}

func TestClassifyValueBoundaries(t *testing.T) {
	cases := []struct {
		v    float64
		want Range
	}{
		{3.8, Low},
		{3.9, InRange},
		{6.0, InRange},
		{7.99, InRange},
		{8.0, High},
		{15, High},
		{math.NaN(), Low},
	}
	for _, tc := range cases {
		if got := ClassifyValue(tc.v, testThresholds); got != tc.want {
			t.Errorf("ClassifyValue(%v)=%s want %s", tc.v, got, tc.want)
		}
	}
}

func TestClassifyScenarios(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

	got := Classify(reading.Reading{Value: 8.0, Timestamp: now.Add(-2 * time.Minute)}, now, testThresholds)
	if got != (State{Range: High, Stale: false}) {
		t.Fatalf("8.0 @ 2m = %+v want High/Fresh", got)
	}

	got = Classify(reading.Reading{Value: 3.9, Timestamp: now.Add(-25 * time.Minute)}, now, testThresholds)
	if got != (State{Range: InRange, Stale: true}) {
		t.Fatalf("3.9 @ 25m = %+v want InRange/Stale", got)
	}
}

func TestClassifyStaleness(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

	exact := Classify(reading.Reading{Value: 5, Timestamp: now.Add(-20 * time.Minute)}, now, testThresholds)
	if exact.Stale {
		t.Fatal("age equal to staleAfter should still be fresh")
	}

	flagged := Classify(reading.Reading{Value: 5, Timestamp: now, Stale: true}, now, testThresholds)
	if !flagged.Stale {
		t.Fatal("upstream stale flag should force stale")
	}
}

func TestIconKey(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{State{Range: InRange}, "green"},
		{State{Range: High}, "yellow"},
		{State{Range: Low, Stale: true}, "x-red"},
	}
	for _, tc := range cases {
		if got := tc.state.Icon().String(); got != tc.want {
			t.Errorf("Icon(%+v)=%s want %s", tc.state, got, tc.want)
		}
	}
}
