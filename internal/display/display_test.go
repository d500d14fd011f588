package display

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/alerting"
	"glucosewatch/internal/classify"
	"glucosewatch/internal/rebin"
)

type recordingNotifier struct {
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n alerting.Notification) error {
	r.notes = append(r.notes, n)
	return nil
}

func frameFor(state classify.State) Frame {
	return Frame{Label: "x", State: state, Icon: state.Icon(), HasReading: true}
}

func TestAlertsTransitions(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	n := &recordingNotifier{}
	a := NewAlerts(n, 30*time.Minute, func() time.Time { return now }, zerolog.Nop())
	ctx := context.Background()

	steps := []classify.State{
		{Range: classify.InRange},              // first, healthy: silent
		{Range: classify.InRange},              // unchanged
		{Range: classify.High},                 // alert
		{Range: classify.High},                 // unchanged
		{Range: classify.InRange},              // recovery: alert
		{Range: classify.High},                 // within cooldown: suppressed
		{Range: classify.InRange, Stale: true}, // stale: alert
	}
	for i, s := range steps {
		if err := a.Show(ctx, frameFor(s)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		now = now.Add(time.Minute)
	}

	var got []string
	for _, note := range n.notes {
		got = append(got, note.State.Icon().String())
	}
	want := []string{"yellow", "green", "x-green"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("alerts=%v want %v", got, want)
	}
	if !n.notes[0].HasPrevious || n.notes[0].Previous.Range != classify.InRange {
		t.Fatalf("first alert previous=%+v", n.notes[0])
	}
}

func TestAlertsFirstStateOutOfRange(t *testing.T) {
	n := &recordingNotifier{}
	a := NewAlerts(n, 0, nil, zerolog.Nop())
	if err := a.Show(context.Background(), frameFor(classify.State{Range: classify.Low})); err != nil {
		t.Fatal(err)
	}
	if len(n.notes) != 1 || n.notes[0].HasPrevious {
		t.Fatalf("notes=%+v", n.notes)
	}
}

func TestAlertsSourceUnreachable(t *testing.T) {
	n := &recordingNotifier{}
	a := NewAlerts(n, 0, nil, zerolog.Nop())
	ctx := context.Background()

	_ = a.Show(ctx, frameFor(classify.State{Range: classify.InRange}))
	failing := frameFor(classify.State{Range: classify.InRange})
	failing.Icon.Stale = true
	failing.FetchFailing = true
	if err := a.Show(ctx, failing); err != nil {
		t.Fatal(err)
	}
	if len(n.notes) != 1 {
		t.Fatalf("notes=%d want 1", len(n.notes))
	}
	msg := alerting.RenderMessage(n.notes[0])
	if !strings.Contains(msg, "STALE") || !strings.Contains(msg, "Source unreachable") {
		t.Fatalf("unexpected message:\n%s", msg)
	}
}

func TestAlertsIgnoresFramesWithoutReading(t *testing.T) {
	n := &recordingNotifier{}
	a := NewAlerts(n, 0, nil, zerolog.Nop())
	_ = a.Show(context.Background(), Frame{Icon: classify.IconKey{Range: classify.Low}})
	if len(n.notes) != 0 {
		t.Fatal("placeholder frame should not alert")
	}
}

func TestConsoleShow(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{})
	frame := Frame{
		Label:        "6.1 mmol/L +0.2 🢂",
		Sparkline:    "¹º",
		LastUpdate:   "Last update: 12:00:00, 0 minutes ago",
		Icon:         classify.IconKey{Range: classify.InRange},
		HasReading:   true,
		FetchFailing: true,
	}
	if err := c.Show(context.Background(), frame); err != nil {
		t.Fatalf("Show: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"6.1 mmol/L", "¹º", "Last update", "source unreachable"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusLineStaleMarker(t *testing.T) {
	line := StatusLine(Frame{Label: "3.9", Icon: classify.IconKey{Range: classify.InRange, Stale: true}})
	if !strings.Contains(line, "✗") {
		t.Fatalf("stale marker missing: %q", line)
	}
}

func TestChartEmptyGrid(t *testing.T) {
	if got := Chart(rebin.New(10), 4); got != "" {
		t.Fatalf("empty grid chart=%q", got)
	}
}

func TestCarryForward(t *testing.T) {
	b := rebin.New(5)
	b[1] = rebin.Bucket{Value: 5, Valid: true}
	b[3] = rebin.Bucket{Value: 7, Valid: true}
	got, ok := carryForward(b)
	if !ok || !reflect.DeepEqual(got, []float64{5, 5, 5, 7, 7}) {
		t.Fatalf("carryForward=%v ok=%v", got, ok)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	m := Multi{
		Func(func(context.Context, Frame) error { calls++; return boom }),
		nil,
		Func(func(context.Context, Frame) error { calls++; return nil }),
	}
	if err := m.Show(context.Background(), Frame{}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d want 2", calls)
	}
}
