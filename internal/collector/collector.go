// Package collector polls the telemetry source, drops repeated samples and appends
// novel ones to the reading log.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/fetcher"
	"glucosewatch/internal/metrics"
	"glucosewatch/internal/reading"
)

// Appender is the slice of the log store the collector writes to.
type Appender interface {
	Append(value float64, ts time.Time) error
}

// Result describes what a poll did.
type Result string

const (
	ResultRecorded     Result = "recorded"
	ResultDuplicate    Result = "duplicate"
	ResultFetchError   Result = "fetch_error"
	ResultStorageError Result = "storage_error"
)

// Outcome is reported for every poll, including failed ones.
type Outcome struct {
	Result Result
	// Reading is the freshest known reading; only meaningful when HasReading is set.
	Reading    reading.Reading
	HasReading bool
	State      classify.State
}

// Options configure a Collector.
type Options struct {
	Thresholds classify.Thresholds
	Now        func() time.Time
}

// Collector owns the last-known reading.
type Collector struct {
	fetch      fetcher.Fetcher
	store      Appender
	thresholds classify.Thresholds
	now        func() time.Time
	logger     zerolog.Logger

	mu       sync.RWMutex
	last     reading.Reading
	hasLast  bool
	lastPoll Result
	// unrecorded is set while the last reading is known in memory but missing from the log.
	unrecorded bool
}

// New constructs a Collector.
func New(opts Options, fetch fetcher.Fetcher, store Appender, logger zerolog.Logger) *Collector {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		fetch:      fetch,
		store:      store,
		thresholds: opts.Thresholds,
		now:        now,
		logger:     logger.With().Str("component", "collector").Logger(),
	}
}

// Seed primes the last-known reading, typically from the newest log record at start-up.
func (c *Collector) Seed(r reading.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasLast && !r.Timestamp.After(c.last.Timestamp) {
		return
	}
	c.last, c.hasLast = r, true
}

// Latest returns the freshest known reading.
func (c *Collector) Latest() (reading.Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.hasLast
}

// FetchFailing reports whether the most recent poll could not reach the source.
func (c *Collector) FetchFailing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPoll == ResultFetchError
}

// Tick adapts PollOnce to the scheduler. Fetch failures are transient and not returned.
func (c *Collector) Tick(ctx context.Context, _ time.Time) error {
	out, err := c.PollOnce(ctx)
	if out.Result == ResultFetchError {
		return nil
	}
	return err
}

// PollOnce fetches one reading, appends it when novel and classifies the freshest reading.
func (c *Collector) PollOnce(ctx context.Context) (Outcome, error) {
	r, err := c.fetch.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, fetcher.ErrFetch) {
			err = fmt.Errorf("%w: %v", fetcher.ErrFetch, err)
		}
		c.logger.Warn().Err(err).Msg("fetch failed; keeping previous reading")
		return c.finish(ResultFetchError), err
	}

	if !c.isNovel(r) {
		return c.finish(ResultDuplicate), nil
	}

	var storeErr error
	if err := c.store.Append(r.Value, r.Timestamp); err != nil {
		storeErr = fmt.Errorf("append reading: %w", err)
		c.logger.Error().Err(err).Time("timestamp", r.Timestamp).Msg("reading not recorded")
	}

	c.mu.Lock()
	c.last, c.hasLast = r, true
	c.unrecorded = storeErr != nil
	c.mu.Unlock()

	if storeErr != nil {
		return c.finish(ResultStorageError), storeErr
	}
	c.logger.Info().Float64("value", r.Value).Time("timestamp", r.Timestamp).Str("trend", string(r.Trend)).Msg("reading recorded")
	return c.finish(ResultRecorded), nil
}

// isNovel rejects the same sample seen again and anything older than the last reading.
// A sample whose append failed stays novel so the next poll retries it.
func (c *Collector) isNovel(r reading.Reading) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasLast {
		return true
	}
	if reading.SameSample(r, c.last) {
		return c.unrecorded
	}
	return !r.Timestamp.Before(c.last.Timestamp)
}

func (c *Collector) finish(result Result) Outcome {
	c.mu.Lock()
	c.lastPoll = result
	last, ok := c.last, c.hasLast
	c.mu.Unlock()

	metrics.ObservePoll(string(result))
	out := Outcome{Result: result, Reading: last, HasReading: ok}
	if ok {
		out.State = classify.Classify(last, c.now(), c.thresholds)
		metrics.ObserveReading(last.Value, last.Timestamp, out.State.Range.String())
	}
	return out
}

// Backfill fetches up to count recent readings and appends, oldest first, those newer
// than the last-known reading. It returns how many were recorded.
func (c *Collector) Backfill(ctx context.Context, source fetcher.RecentFetcher, count int) (int, error) {
	recent, err := source.FetchRecent(ctx, count)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for i := len(recent) - 1; i >= 0; i-- {
		r := recent[i]
		if !c.isNovel(r) {
			continue
		}
		if err := c.store.Append(r.Value, r.Timestamp); err != nil {
			return recorded, fmt.Errorf("append backfilled reading: %w", err)
		}
		c.mu.Lock()
		c.last, c.hasLast = r, true
		c.unrecorded = false
		c.mu.Unlock()
		recorded++
	}
	c.logger.Info().Int("fetched", len(recent)).Int("recorded", recorded).Msg("backfill complete")
	return recorded, nil
}
