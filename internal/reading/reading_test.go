package reading

import (
	"math"
	"testing"
	"time"
)

func TestSameSample(t *testing.T) {
	base := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	a := Reading{Value: 6.2, Timestamp: base}

	cases := []struct {
		name string
		b    Reading
		want bool
	}{
		{"identical", Reading{Value: 6.2, Timestamp: base}, true},
		{"ten seconds later", Reading{Value: 6.2, Timestamp: base.Add(10 * time.Second)}, true},
		{"ten seconds earlier", Reading{Value: 6.2, Timestamp: base.Add(-10 * time.Second)}, true},
		{"eleven seconds later", Reading{Value: 6.2, Timestamp: base.Add(11 * time.Second)}, false},
		{"different value", Reading{Value: 6.3, Timestamp: base}, false},
	}
	for _, tc := range cases {
		if got := SameSample(a, tc.b); got != tc.want {
			t.Errorf("%s: SameSample=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestFromMgdl(t *testing.T) {
	if got := FromMgdl(110, MmolL); got != 6.1 {
		t.Fatalf("110 mg/dL=%v mmol/L want 6.1", got)
	}
	if got := FromMgdl(-4, MmolL); got != -0.2 {
		t.Fatalf("-4 mg/dL=%v want -0.2", got)
	}
	if got := FromMgdl(110.4, MgdL); got != 110 {
		t.Fatalf("mg/dL passthrough=%v want 110", got)
	}
	if got := FromMgdl(math.NaN(), MmolL); !math.IsNaN(got) {
		t.Fatalf("NaN should pass through, got %v", got)
	}
}

func TestParseUnits(t *testing.T) {
	for _, in := range []string{"mmol/L", "mmol/l", "mmolL", " mmol/L "} {
		if u, err := ParseUnits(in); err != nil || u != MmolL {
			t.Errorf("ParseUnits(%q)=%v,%v", in, u, err)
		}
	}
	if u, err := ParseUnits("mg/dL"); err != nil || u != MgdL {
		t.Errorf("ParseUnits(mg/dL)=%v,%v", u, err)
	}
	if _, err := ParseUnits("furlongs"); err == nil {
		t.Error("expected error for unknown units")
	}
}

func TestLabel(t *testing.T) {
	r := Reading{Value: 6.1, Delta: 0.2, Trend: TrendFlat}
	if got, want := r.Label(MmolL), "6.1 mmol/L +0.2 🢂"; got != want {
		t.Fatalf("Label=%q want %q", got, want)
	}

	r = Reading{Value: 7, Delta: math.Copysign(0, -1), Trend: TrendDoubleUp}
	if got, want := r.Label(MmolL), "7.0 mmol/L +0.0 🢁🢁"; got != want {
		t.Fatalf("negative zero delta: Label=%q want %q", got, want)
	}

	r = Reading{Value: 142, Delta: -6, Trend: Trend("NOT COMPUTABLE")}
	if got, want := r.Label(MgdL), "142 mg/dL -6 NOT COMPUTABLE"; got != want {
		t.Fatalf("Label=%q want %q", got, want)
	}
}

func TestLastUpdated(t *testing.T) {
	ts := time.Date(2026, time.October, 19, 14, 5, 9, 0, time.UTC)
	cases := []struct {
		age  time.Duration
		want string
	}{
		{0, "Last update: 14:05:09, 0 minutes ago"},
		{70 * time.Second, "Last update: 14:05:09, 1 minute ago"},
		{3 * time.Minute, "Last update: 14:05:09, 3 minutes ago"},
	}
	for _, tc := range cases {
		if got := (Reading{Timestamp: ts}).LastUpdated(ts.Add(tc.age)); got != tc.want {
			t.Errorf("age %s: got %q want %q", tc.age, got, tc.want)
		}
	}
}

func TestTrendSymbol(t *testing.T) {
	if ParseTrend("").Symbol() != "•" {
		t.Fatal("empty direction should map to the none symbol")
	}
	if TrendSingleDown.Symbol() != "🢃" {
		t.Fatal("SingleDown symbol mismatch")
	}
}
