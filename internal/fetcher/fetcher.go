package fetcher

import (
	"context"
	"errors"

	"glucosewatch/internal/reading"
)

// ErrFetch marks every failure to obtain a usable reading: transport errors, bad
// status codes, undecodable payloads and entries missing required fields.
var ErrFetch = errors.New("fetch failed")

// Fetcher retrieves the newest reading from the telemetry source.
type Fetcher interface {
	Fetch(ctx context.Context) (reading.Reading, error)
}

// RecentFetcher retrieves up to count recent readings, newest first.
type RecentFetcher interface {
	FetchRecent(ctx context.Context, count int) ([]reading.Reading, error)
}
