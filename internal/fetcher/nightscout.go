package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/reading"
	"glucosewatch/internal/version"
)

const entriesPath = "/api/v1/entries.json"

// NightscoutOptions parameterise the Nightscout fetcher.
type NightscoutOptions struct {
	BaseURL   string
	Token     string
	Units     reading.Units
	Timeout   time.Duration
	UserAgent string
}

// Nightscout reads sensor glucose entries from a Nightscout site.
type Nightscout struct {
	opts    NightscoutOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewNightscout constructs a Nightscout fetcher.
func NewNightscout(opts NightscoutOptions, logger zerolog.Logger) *Nightscout {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.Units == "" {
		opts.Units = reading.MmolL
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	return &Nightscout{
		opts:    opts,
		logger:  logger.With().Str("component", "nightscout_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch returns the newest entry.
func (n *Nightscout) Fetch(ctx context.Context) (reading.Reading, error) {
	readings, err := n.FetchRecent(ctx, 1)
	if err != nil {
		return reading.Reading{}, err
	}
	if len(readings) == 0 {
		return reading.Reading{}, fmt.Errorf("%w: no entries returned", ErrFetch)
	}
	return readings[0], nil
}

// FetchRecent returns up to count entries, newest first.
func (n *Nightscout) FetchRecent(ctx context.Context, count int) ([]reading.Reading, error) {
	if n.baseURL == "" {
		return nil, fmt.Errorf("%w: nightscout base url not configured", ErrFetch)
	}
	if count <= 0 {
		count = 1
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(count))
	query.Set("find[type]", "sgv")
	if n.opts.Token != "" {
		query.Set("token", n.opts.Token)
	}
	endpoint := n.baseURL + entriesPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(n.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", version.UserAgent())
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	readings, skipped, err := ParseEntries(payload, n.opts.Units)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		n.logger.Warn().Int("skipped", skipped).Msg("ignored entries without date or sgv")
	}
	n.logger.Debug().Int("requested", count).Int("received", len(readings)).Msg("fetched entries")
	return readings, nil
}

type entry struct {
	Date      *int64   `json:"date"`
	SGV       *float64 `json:"sgv"`
	Delta     *float64 `json:"delta"`
	Direction string   `json:"direction"`
	Stale     bool     `json:"stale"`
}

// ParseEntries decodes a Nightscout entries payload. Entries lacking date or sgv
// (meter or calibration records) are skipped and counted; a non-empty payload with no
// usable entry is a fetch error.
func ParseEntries(payload []byte, units reading.Units) ([]reading.Reading, int, error) {
	var entries []entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, 0, fmt.Errorf("%w: decode entries: %v", ErrFetch, err)
	}

	readings := make([]reading.Reading, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.Date == nil || *e.Date <= 0 || e.SGV == nil || math.IsNaN(*e.SGV) {
			skipped++
			continue
		}
		delta := 0.0
		if e.Delta != nil {
			delta = *e.Delta
		}
		readings = append(readings, reading.Reading{
			Value:     reading.FromMgdl(*e.SGV, units),
			Delta:     reading.FromMgdl(delta, units),
			Timestamp: time.UnixMilli(*e.Date).Truncate(time.Second),
			Trend:     reading.ParseTrend(e.Direction),
			Stale:     e.Stale,
		})
	}
	if len(entries) > 0 && len(readings) == 0 {
		return nil, skipped, fmt.Errorf("%w: no entry carries date and sgv", ErrFetch)
	}
	return readings, skipped, nil
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: nightscout error (%d): %s", ErrFetch, status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("%w: nightscout error (%d): %s", ErrFetch, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%w: nightscout error (%d)", ErrFetch, status)
}

var (
	_ Fetcher       = (*Nightscout)(nil)
	_ RecentFetcher = (*Nightscout)(nil)
)
