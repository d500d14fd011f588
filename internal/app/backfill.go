package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glucosewatch/internal/collector"
)

// Backfill pulls up to one rendering window of recent readings into the log.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	count := opts.Count
	if count <= 0 || count > a.Config.Render.Width {
		count = a.Config.Render.Width
	}

	store := a.openStore()
	defer store.Close()

	source := a.newFetcher()
	var sink collector.Appender = store
	dry := &dryRunAppender{}
	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: nothing will be written")
		sink = dry
	}

	coll := a.newCollector(source, sink)
	a.seedFromLog(coll, store)

	recorded, err := coll.Backfill(ctx, source, count)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	if opts.DryRun {
		fmt.Fprintf(a.Out, "would record %d readings\n", len(dry.times))
		for i, ts := range dry.times {
			fmt.Fprintf(a.Out, "  %s  %v\n", ts.Format(time.RFC3339), dry.values[i])
		}
		return nil
	}
	fmt.Fprintf(a.Out, "recorded %d readings\n", recorded)
	if recorded == 0 && count > 0 {
		a.Logger.Info().Msg("log already up to date")
	}
	return nil
}

type dryRunAppender struct {
	values []float64
	times  []time.Time
}

func (d *dryRunAppender) Append(value float64, ts time.Time) error {
	if ts.IsZero() {
		return errors.New("zero timestamp")
	}
	d.values = append(d.values, value)
	d.times = append(d.times, ts)
	return nil
}
