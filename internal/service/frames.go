package service

import (
	"fmt"
	"time"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/display"
	"glucosewatch/internal/logstore"
	"glucosewatch/internal/reading"
	"glucosewatch/internal/rebin"
	"glucosewatch/internal/sparkline"
)

const placeholderLabel = "booting ..."

// LogReader is the read side of the reading log used by the render path.
type LogReader interface {
	ScanCurrentMonth() (time.Time, []logstore.Record, error)
	ScanMonth(month logstore.Month) (time.Time, []logstore.Record, error)
	CurrentMonth() logstore.Month
}

// RenderOptions shape the rendered window and the classification.
type RenderOptions struct {
	Width       int
	BucketWidth time.Duration
	Rows        int
	GraphMin    float64
	GraphMax    float64
	Units       reading.Units
	Thresholds  classify.Thresholds
}

// Frames turns the log and the freshest reading into display frames.
type Frames struct {
	log  LogReader
	opts RenderOptions
}

// NewFrames constructs a frame builder.
func NewFrames(log LogReader, opts RenderOptions) *Frames {
	return &Frames{log: log, opts: opts}
}

// Buckets rebins the visible window ending at now. When the window reaches back past the
// start of the current month the previous partition is folded in after the current one.
func (f *Frames) Buckets(now time.Time) (rebin.Buckets, error) {
	start, records, err := f.log.ScanCurrentMonth()
	if err != nil {
		return nil, fmt.Errorf("scan current month: %w", err)
	}
	buckets := rebin.Rebin(records, start, now, f.opts.Width, f.opts.BucketWidth)

	windowStart := now.Add(-time.Duration(f.opts.Width) * f.opts.BucketWidth)
	if windowStart.Before(start) {
		prevStart, prev, err := f.log.ScanMonth(f.log.CurrentMonth().Prev())
		if err != nil {
			return nil, fmt.Errorf("scan previous month: %w", err)
		}
		buckets.Fold(prev, prevStart, now, f.opts.BucketWidth)
	}
	return buckets, nil
}

// Build assembles a frame for now. Without a reading the frame carries a placeholder
// label and an empty-history classification. While the source is unreachable the icon
// takes its stale variant; State still describes the last reading.
func (f *Frames) Build(now time.Time, latest reading.Reading, hasReading, fetchFailing bool) (display.Frame, error) {
	buckets, err := f.Buckets(now)
	if err != nil {
		return display.Frame{}, err
	}

	frame := display.Frame{
		Label:        placeholderLabel,
		Sparkline:    sparkline.Render(buckets, f.opts.GraphMin, f.opts.GraphMax, f.opts.Rows),
		HasReading:   hasReading,
		FetchFailing: fetchFailing,
		Buckets:      buckets,
	}
	if hasReading {
		state := classify.Classify(latest, now, f.opts.Thresholds)
		frame.Label = latest.Label(f.opts.Units)
		frame.LastUpdate = latest.LastUpdated(now)
		frame.State = state
		frame.Icon = state.Icon()
		if fetchFailing {
			frame.Icon.Stale = true
		}
	} else {
		frame.State = classify.State{Range: classify.InRange, Stale: true}
		frame.Icon = frame.State.Icon()
	}
	return frame, nil
}
