package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"intraday-almanac/internal/domain"
)

// barTimeLayout is the timestamp format of bar CSV exports.
const barTimeLayout = "2006-01-02 15:04:05"

// CSVSource reads historical bars from per-symbol CSV files in a
// directory: <dir>/<symbol>.csv with columns
// timestamp,open,high,low,close,volume. Timestamps are wall-clock in
// the source's location.
type CSVSource struct {
	dir string
	loc *time.Location
}

// NewCSVSource creates a CSV bar source. A nil location defaults to
// UTC.
func NewCSVSource(dir string, loc *time.Location) *CSVSource {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVSource{dir: dir, loc: loc}
}

var _ BarSource = (*CSVSource)(nil)

// Fetch reads the symbol's file and returns the bars within
// [from, to].
func (s *CSVSource) Fetch(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error) {
	path := filepath.Join(s.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar file: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f, symbol, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(from) || b.Time.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ReadBars parses a bar CSV stream. A header row is skipped if
// present. Malformed rows fail with the row number.
func ReadBars(r io.Reader, symbol string, loc *time.Location) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var bars []domain.Bar
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++
		if row == 1 && rec[0] == "timestamp" {
			continue
		}

		ts, err := time.ParseInLocation(barTimeLayout, rec[0], loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: timestamp: %w", row, err)
		}
		var prices [4]float64
		for i := 0; i < 4; i++ {
			prices[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: price: %w", row, err)
			}
		}
		vol, err := strconv.ParseInt(rec[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: volume: %w", row, err)
		}

		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Time:   ts,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: vol,
		})
	}
	return bars, nil
}

// ReadTradingDays parses a one-column calendar CSV: a "day" header
// row is optional, one YYYY-MM-DD date per row.
func ReadTradingDays(r io.Reader) ([]domain.Date, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1

	var days []domain.Date
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++
		if row == 1 && rec[0] == "day" {
			continue
		}
		d, err := domain.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		days = append(days, d)
	}
	return days, nil
}

// ReadEvents parses an economic-event CSV with columns
// event_type,day. Rows are grouped per event type for bulk insertion.
// Unrecognized event types fail parsing; the calendars are curated and
// a typo in one should not silently drop it.
func ReadEvents(r io.Reader) (map[domain.EventType][]domain.Date, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	events := make(map[domain.EventType][]domain.Date)
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++
		if row == 1 && rec[0] == "event_type" {
			continue
		}

		et := domain.EventType(rec[0])
		if !et.IsValid() {
			return nil, fmt.Errorf("row %d: unknown event type %q", row, rec[0])
		}
		d, err := domain.ParseDate(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		events[et] = append(events[et], d)
	}
	return events, nil
}
