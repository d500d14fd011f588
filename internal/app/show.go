package app

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"glucosewatch/internal/classify"
)

// Show prints the most recent records of the current month.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store := a.openStore()
	defer store.Close()

	start := store.CurrentMonth().Start(store.Location())
	records, err := store.Tail(opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.Out, "no readings logged this month")
		return nil
	}

	th := a.thresholds()
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time\tOffset\tValue\tRange")
	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%s\t%s\n",
			rec.Time(start).Format(time.RFC3339),
			rec.Offset,
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
			classify.ClassifyValue(rec.Value, th),
		)
	}

	return writer.Flush()
}
