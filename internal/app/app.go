package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/alerting"
	"glucosewatch/internal/classify"
	"glucosewatch/internal/collector"
	"glucosewatch/internal/config"
	"glucosewatch/internal/display"
	"glucosewatch/internal/fetcher"
	"glucosewatch/internal/logstore"
	"glucosewatch/internal/metrics"
	"glucosewatch/internal/reading"
	"glucosewatch/internal/scheduler"
	"glucosewatch/internal/service"
	"glucosewatch/internal/timecodec"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
	Now    func() time.Time
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		Now:    time.Now,
	}
}

func (a *App) newFetcher() *fetcher.Nightscout {
	return fetcher.NewNightscout(fetcher.NightscoutOptions{
		BaseURL:   a.Config.Nightscout.BaseURL,
		Token:     a.Config.Nightscout.Token,
		Units:     a.Config.Units(),
		Timeout:   a.Config.Nightscout.RequestTimeout,
		UserAgent: a.Config.Nightscout.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore() *logstore.Store {
	return logstore.New(logstore.Options{
		Root:     a.Config.Storage.LogDir,
		Location: timecodec.Zone(a.Config.Storage.TimezoneOffsetHours),
		Now:      a.Now,
	}, a.Logger)
}

func (a *App) thresholds() classify.Thresholds {
	return classify.Thresholds{
		Low:        a.Config.Thresholds.Low,
		High:       a.Config.Thresholds.High,
		StaleAfter: a.Config.Thresholds.StaleAfter,
	}
}

func (a *App) renderOptions() service.RenderOptions {
	return service.RenderOptions{
		Width:       a.Config.Render.Width,
		BucketWidth: a.Config.BucketWidth(),
		Rows:        a.Config.Render.RowsPerColumn,
		GraphMin:    a.Config.Render.GraphMin,
		GraphMax:    a.Config.Render.GraphMax,
		Units:       a.Config.Units(),
		Thresholds:  a.thresholds(),
	}
}

func (a *App) newCollector(f fetcher.Fetcher, store collector.Appender) *collector.Collector {
	return collector.New(collector.Options{Thresholds: a.thresholds(), Now: a.Now}, f, store, a.Logger)
}

func (a *App) newDisplay() display.Display {
	sinks := display.Multi{display.NewConsole(a.Out, display.ConsoleOptions{
		Chart:       a.Config.Render.Braille,
		ChartHeight: a.Config.Render.BrailleHeight,
	})}
	if notifier := a.newNotifier(); notifier != nil {
		sinks = append(sinks, display.NewAlerts(notifier, a.Config.Alerting.Cooldown, a.Now, a.Logger))
	}
	return sinks
}

// seedFromLog primes the collector with the newest logged sample so a restart does not
// append it a second time.
func (a *App) seedFromLog(c *collector.Collector, store *logstore.Store) {
	ts, rec, ok, err := store.Last()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("could not read last logged reading")
		return
	}
	if ok {
		c.Seed(reading.Reading{Value: rec.Value, Timestamp: ts, Trend: reading.TrendNone})
	}
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := a.openStore()
	defer func() {
		if err := store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("close reading log")
		}
	}()

	source := a.newFetcher()
	coll := a.newCollector(source, store)
	a.seedFromLog(coll, store)

	if a.Config.Collector.BackfillOnStart {
		if _, err := coll.Backfill(ctx, source, a.Config.Render.Width); err != nil {
			a.Logger.Warn().Err(err).Msg("startup backfill failed; continuing with logged history")
		}
	}

	if a.Config.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, a.Config.Metrics.Addr, a.Logger); err != nil {
				a.Logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	poll := scheduler.New(scheduler.Options{
		Name:         "poll",
		Interval:     a.Config.Collector.Interval,
		StartupDelay: a.Config.Collector.StartupDelay,
		Immediate:    true,
	}, a.Logger)
	render := scheduler.New(scheduler.Options{
		Name:      "render",
		Interval:  a.Config.Render.Interval,
		Immediate: true,
	}, a.Logger)

	frames := service.NewFrames(store, a.renderOptions())
	svc := service.New(poll, render, coll, frames, a.newDisplay(), a.Now, a.Logger)

	a.Logger.Info().Str("log_dir", a.Config.Storage.LogDir).Msg("starting monitoring service")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting a month of the log.
type ExportOptions struct {
	Month     *logstore.Month
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// BackfillOptions configure the backfill job.
type BackfillOptions struct {
	Count  int
	DryRun bool
}

// SimulateOptions describe a synthetic reading.
type SimulateOptions struct {
	Value float64
	Age   time.Duration
	Trend string
}
