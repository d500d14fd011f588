package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"glucosewatch/internal/collector"
	"glucosewatch/internal/display"
	"glucosewatch/internal/metrics"
	"glucosewatch/internal/scheduler"
)

// Service runs the poll loop and the render loop side by side.
type Service struct {
	poll      *scheduler.Scheduler
	render    *scheduler.Scheduler
	collector *collector.Collector
	frames    *Frames
	display   display.Display
	now       func() time.Time
	logger    zerolog.Logger
}

// New constructs the monitoring service.
func New(poll, render *scheduler.Scheduler, c *collector.Collector, frames *Frames, d display.Display, now func() time.Time, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		poll:      poll,
		render:    render,
		collector: c,
		frames:    frames,
		display:   d,
		now:       now,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run blocks until ctx is cancelled or a loop fails to start.
func (s *Service) Run(ctx context.Context) error {
	if s.poll == nil || s.render == nil {
		return fmt.Errorf("scheduler not configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.poll.Run(ctx, s.collector.Tick)
	})
	g.Go(func() error {
		return s.render.Run(ctx, s.RenderTick)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RenderTick builds one frame and pushes it to the display.
func (s *Service) RenderTick(ctx context.Context, _ time.Time) error {
	started := time.Now()
	latest, ok := s.collector.Latest()
	frame, err := s.frames.Build(s.now(), latest, ok, s.collector.FetchFailing())
	if err != nil {
		return fmt.Errorf("build frame: %w", err)
	}
	metrics.ObserveRender(time.Since(started))

	s.logger.Debug().
		Str("icon", frame.Icon.String()).
		Int("filled_buckets", frame.Buckets.Filled()).
		Msg("frame rendered")

	if s.display == nil {
		return nil
	}
	if err := s.display.Show(ctx, frame); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}
	return nil
}
