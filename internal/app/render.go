package app

import (
	"context"

	"glucosewatch/internal/display"
	"glucosewatch/internal/reading"
	"glucosewatch/internal/service"
)

// Render prints one frame built from the log alone, classifying the newest logged sample.
func (a *App) Render(ctx context.Context) error {
	store := a.openStore()
	defer store.Close()

	ts, rec, ok, err := store.Last()
	if err != nil {
		return err
	}

	frames := service.NewFrames(store, a.renderOptions())
	latest := reading.Reading{Value: rec.Value, Timestamp: ts, Trend: reading.TrendNone}
	frame, err := frames.Build(a.Now(), latest, ok, false)
	if err != nil {
		return err
	}

	console := display.NewConsole(a.Out, display.ConsoleOptions{
		Chart:       a.Config.Render.Braille,
		ChartHeight: a.Config.Render.BrailleHeight,
	})
	return console.Show(ctx, frame)
}
