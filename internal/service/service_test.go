package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/collector"
	"glucosewatch/internal/display"
	"glucosewatch/internal/logstore"
	"glucosewatch/internal/reading"
	"glucosewatch/internal/scheduler"
	"glucosewatch/internal/sparkline"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

var testRender = RenderOptions{
	Width:       72,
	BucketWidth: 5 * time.Minute,
	Rows:        8,
	GraphMin:    1,
	GraphMax:    10,
	Units:       reading.MmolL,
	Thresholds:  classify.Thresholds{Low: 3.9, High: 8.0, StaleAfter: 20 * time.Minute},
}

type staticFetcher struct {
	mu sync.Mutex
	r  reading.Reading
}

func (f *staticFetcher) Fetch(context.Context) (reading.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.r, nil
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []display.Frame
}

func (r *frameRecorder) Show(_ context.Context, f display.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) last() (display.Frame, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return display.Frame{}, 0
	}
	return r.frames[len(r.frames)-1], len(r.frames)
}

func newStore(t *testing.T, now time.Time) *logstore.Store {
	t.Helper()
	s := logstore.New(logstore.Options{Root: t.TempDir(), Location: time.UTC, Now: func() time.Time { return now }}, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countFilled(line string) int {
	n := 0
	for _, col := range sparkline.Columns(line) {
		if strings.ContainsRune(string(col), sparkline.FilledMark) {
			n++
		}
	}
	return n
}

func TestBuildEmptyLog(t *testing.T) {
	frames := NewFrames(newStore(t, testNow), testRender)
	frame, err := frames.Build(testNow, reading.Reading{}, false, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(frame.Buckets) != 72 || frame.Buckets.Filled() != 0 {
		t.Fatalf("buckets=%d filled=%d", len(frame.Buckets), frame.Buckets.Filled())
	}
	if cols := sparkline.Columns(frame.Sparkline); len(cols) != 72 || countFilled(frame.Sparkline) != 0 {
		t.Fatalf("sparkline should be 72 empty columns, got %d/%d", len(cols), countFilled(frame.Sparkline))
	}
	if frame.Label != placeholderLabel || frame.HasReading {
		t.Fatalf("frame=%+v", frame)
	}
}

func TestBuildClassifiesLatest(t *testing.T) {
	store := newStore(t, testNow)
	frames := NewFrames(store, testRender)

	r := reading.Reading{Value: 8.0, Timestamp: testNow.Add(-2 * time.Minute), Trend: reading.TrendFlat}
	if err := store.Append(r.Value, r.Timestamp); err != nil {
		t.Fatal(err)
	}
	frame, err := frames.Build(testNow, r, true, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if frame.State != (classify.State{Range: classify.High}) || frame.Icon.String() != "yellow" {
		t.Fatalf("state=%+v icon=%s", frame.State, frame.Icon)
	}
	if frame.Label != "8.0 mmol/L +0.0 🢂" {
		t.Fatalf("label=%q", frame.Label)
	}
	if !frame.Buckets[71].Valid || countFilled(frame.Sparkline) != 1 {
		t.Fatalf("expected newest bucket filled, buckets=%+v", frame.Buckets[70:])
	}

	stale := reading.Reading{Value: 3.9, Timestamp: testNow.Add(-25 * time.Minute)}
	frame, _ = frames.Build(testNow, stale, true, false)
	if frame.State != (classify.State{Range: classify.InRange, Stale: true}) {
		t.Fatalf("state=%+v want InRange/Stale", frame.State)
	}
}

func TestBuildMarksIconStaleWhileFetchFailing(t *testing.T) {
	frames := NewFrames(newStore(t, testNow), testRender)
	r := reading.Reading{Value: 6.0, Timestamp: testNow.Add(-time.Minute)}

	frame, err := frames.Build(testNow, r, true, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if frame.Icon.String() != "x-green" {
		t.Fatalf("icon=%s want x-green", frame.Icon)
	}
	if frame.State != (classify.State{Range: classify.InRange}) {
		t.Fatalf("state should describe the reading, got %+v", frame.State)
	}

	frame, _ = frames.Build(testNow, r, true, false)
	if frame.Icon.String() != "green" {
		t.Fatalf("icon=%s after recovery, want green", frame.Icon)
	}
}

func TestBucketsFoldPreviousMonth(t *testing.T) {
	now := time.Date(2026, time.November, 1, 0, 30, 0, 0, time.UTC)
	store := newStore(t, now)
	if err := store.Append(6.0, time.Date(2026, time.October, 31, 23, 50, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(6.5, time.Date(2026, time.November, 1, 0, 20, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	b, err := NewFrames(store, testRender).Buckets(now)
	if err != nil {
		t.Fatalf("Buckets: %v", err)
	}
	if b.Filled() != 2 {
		t.Fatalf("filled=%d want 2", b.Filled())
	}
	if !b[63].Valid || b[63].Value != 6.0 {
		t.Fatalf("october sample misplaced: %+v", b[60:])
	}
}

func TestRunPollsAndRenders(t *testing.T) {
	store := newStore(t, testNow)
	f := &staticFetcher{r: reading.Reading{Value: 6.1, Timestamp: testNow.Add(-time.Minute)}}
	clock := func() time.Time { return testNow }

	c := collector.New(collector.Options{Thresholds: testRender.Thresholds, Now: clock}, f, store, zerolog.Nop())
	rec := &frameRecorder{}
	poll := scheduler.New(scheduler.Options{Name: "poll", Interval: 5 * time.Millisecond, Immediate: true}, zerolog.Nop())
	render := scheduler.New(scheduler.Options{Name: "render", Interval: 5 * time.Millisecond}, zerolog.Nop())
	svc := New(poll, render, c, NewFrames(store, testRender), rec, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		frame, n := rec.last()
		if n > 0 && frame.HasReading {
			if frame.State != (classify.State{Range: classify.InRange}) {
				t.Fatalf("state=%+v", frame.State)
			}
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("no frame with a reading was rendered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	records, _ := store.Tail(10)
	if len(records) != 1 {
		t.Fatalf("records=%d want 1 (duplicates must not be appended)", len(records))
	}
}
