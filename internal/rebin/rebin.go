// Package rebin folds a sparse, irregularly timed reading log onto a dense grid of
// fixed-width time buckets that ends at "now".
package rebin

import (
	"time"

	"glucosewatch/internal/logstore"
)

// Bucket is one slot of the grid. An empty bucket has Valid == false.
type Bucket struct {
	Value float64
	Valid bool
}

// Buckets is ordered oldest first; the last bucket ends at now.
type Buckets []Bucket

// New allocates width empty buckets.
func New(width int) Buckets {
	if width < 0 {
		width = 0
	}
	return make(Buckets, width)
}

// Rebin builds a fresh grid from one month of records.
func Rebin(records []logstore.Record, monthStart, now time.Time, width int, bucketWidth time.Duration) Buckets {
	b := New(width)
	b.Fold(records, monthStart, now, bucketWidth)
	return b
}

// Fold places records (oldest first, all relative to monthStart) into empty buckets,
// walking from the most recent record backwards so the newest sample in a bucket wins.
// Folding a later month before an earlier one keeps that ordering across partitions.
func (b Buckets) Fold(records []logstore.Record, monthStart, now time.Time, bucketWidth time.Duration) {
	if bucketWidth <= 0 || len(b) == 0 {
		return
	}
	last := len(b) - 1
	for i := len(records) - 1; i >= 0; i-- {
		age := now.Sub(records[i].Time(monthStart))
		idx := last - int(floorDiv(int64(age), int64(bucketWidth)))
		if idx < 0 || idx > last || b[idx].Valid {
			continue
		}
		b[idx] = Bucket{Value: records[i].Value, Valid: true}
	}
}

// Values returns the bucket values with empty buckets reported as ok=false.
func (b Buckets) Values() ([]float64, []bool) {
	values := make([]float64, len(b))
	ok := make([]bool, len(b))
	for i, bucket := range b {
		values[i], ok[i] = bucket.Value, bucket.Valid
	}
	return values, ok
}

// Filled counts non-empty buckets.
func (b Buckets) Filled() int {
	n := 0
	for _, bucket := range b {
		if bucket.Valid {
			n++
		}
	}
	return n
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
