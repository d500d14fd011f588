package logstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/timecodec"
)

const logFileName = "readings.log"

// ErrStorageUnavailable indicates the log partition could not be created or written.
var ErrStorageUnavailable = errors.New("logstore: storage unavailable")

// Record is one persisted sample: seconds since its month start and the value.
type Record struct {
	Offset int64
	Value  float64
}

// Time resolves the record against the start of its month.
func (r Record) Time(monthStart time.Time) time.Time {
	return timecodec.Decode(r.Offset, monthStart)
}

// Options configure a Store.
type Options struct {
	Root     string
	Location *time.Location
	Now      func() time.Time
}

// Store is an append-only reading log partitioned by calendar month.
type Store struct {
	root   string
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger

	mu    sync.RWMutex
	files map[Month]*os.File
}

// New constructs a Store rooted at opts.Root. Nothing touches the disk until the first append.
func New(opts Options, logger zerolog.Logger) *Store {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		root:   opts.Root,
		loc:    loc,
		now:    now,
		logger: logger.With().Str("component", "logstore").Logger(),
		files:  make(map[Month]*os.File),
	}
}

// Location reports the fixed zone used for partitioning.
func (s *Store) Location() *time.Location {
	return s.loc
}

// CurrentMonth reports the partition that "now" falls in.
func (s *Store) CurrentMonth() Month {
	return MonthOf(s.now(), s.loc)
}

// Append writes one record to the partition of ts.
func (s *Store) Append(value float64, ts time.Time) error {
	month := MonthOf(ts, s.loc)
	offset, err := timecodec.Encode(ts, month.Start(s.loc))
	if err != nil {
		return err
	}

	line := make([]byte, 0, 32)
	line = strconv.AppendInt(line, offset, 10)
	line = append(line, ' ')
	line = strconv.AppendFloat(line, value, 'f', -1, 64)
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.partition(month)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		delete(s.files, month)
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, month, err)
	}
	return nil
}

func (s *Store) partition(month Month) (*os.File, error) {
	if f, ok := s.files[month]; ok {
		return f, nil
	}
	path := month.path(s.root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorageUnavailable, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}
	s.files[month] = f
	s.logger.Debug().Str("month", month.String()).Str("path", path).Msg("opened log partition")
	return f, nil
}

// Tail returns up to n of the most recent records of the current month, most recent last.
// A short or empty result means the history is not there yet.
func (s *Store) Tail(n int) ([]Record, error) {
	if n <= 0 {
		return []Record{}, nil
	}
	_, records, err := s.ScanCurrentMonth()
	if err != nil {
		return nil, err
	}
	if len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// ScanCurrentMonth returns the current month's start and all of its records, oldest first.
func (s *Store) ScanCurrentMonth() (time.Time, []Record, error) {
	return s.ScanMonth(s.CurrentMonth())
}

// ScanMonth returns the start of month and its records, oldest first.
func (s *Store) ScanMonth(month Month) (time.Time, []Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := month.Start(s.loc)
	data, err := os.ReadFile(month.path(s.root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return start, []Record{}, nil
		}
		return start, nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, month, err)
	}
	return start, s.parse(month, data), nil
}

// Last returns the newest record of the current month, falling back to the previous one.
func (s *Store) Last() (time.Time, Record, bool, error) {
	month := s.CurrentMonth()
	for _, m := range []Month{month, month.Prev()} {
		start, records, err := s.ScanMonth(m)
		if err != nil {
			return time.Time{}, Record{}, false, err
		}
		if len(records) > 0 {
			last := records[len(records)-1]
			return last.Time(start), last, true, nil
		}
	}
	return time.Time{}, Record{}, false, nil
}

func (s *Store) parse(month Month, data []byte) []Record {
	records := make([]Record, 0, bytes.Count(data, []byte{'\n'}))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			s.logger.Warn().Err(err).Str("month", month.String()).Int("line", line).Msg("skipping malformed log line")
			continue
		}
		records = append(records, rec)
	}
	return records
}

func parseLine(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Record{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse offset: %w", err)
	}
	if offset < 0 {
		return Record{}, fmt.Errorf("negative offset %d", offset)
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse value: %w", err)
	}
	return Record{Offset: offset, Value: value}, nil
}

// Close releases every open partition.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for month, f := range s.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", month, err))
		}
		delete(s.files, month)
	}
	return errors.Join(errs...)
}
