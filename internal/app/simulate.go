package app

import (
	"context"
	"errors"
	"time"

	"glucosewatch/internal/display"
	"glucosewatch/internal/fetcher"
	"glucosewatch/internal/reading"
	"glucosewatch/internal/service"
)

// Simulate pushes a synthetic reading through collection, classification and the display
// sinks (including alerts, when configured) without touching the log.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Age < 0 {
		return errors.New("age cannot be negative")
	}

	now := a.Now()
	r := reading.Reading{
		Value:     opts.Value,
		Timestamp: now.Add(-opts.Age).Truncate(time.Second),
		Trend:     reading.ParseTrend(opts.Trend),
	}

	store := a.openStore()
	defer store.Close()

	coll := a.newCollector(&staticFetcher{reading: r}, &dryRunAppender{})
	out, err := coll.PollOnce(ctx)
	if err != nil {
		return err
	}

	frames := service.NewFrames(store, a.renderOptions())
	frame, err := frames.Build(now, out.Reading, out.HasReading, false)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Float64("value", r.Value).
		Dur("age", opts.Age).
		Str("icon", frame.Icon.String()).
		Msg("simulated reading classified")

	var d display.Display = a.newDisplay()
	return d.Show(ctx, frame)
}

type staticFetcher struct {
	reading reading.Reading
}

func (s *staticFetcher) Fetch(ctx context.Context) (reading.Reading, error) {
	return s.reading, nil
}

var _ fetcher.Fetcher = (*staticFetcher)(nil)
