package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TruWeaveTrader/pairs-gym/internal/models"
)

// WritePairCSV writes timestamp,<A>,<B> rows
func WritePairCSV(path string, pair *models.PairSeries) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", pair.SymbolA, pair.SymbolB}); err != nil {
		return err
	}
	for i, ts := range pair.Timestamps {
		row := []string{
			ts.UTC().Format(time.RFC3339),
			strconv.FormatFloat(pair.A[i], 'f', -1, 64),
			strconv.FormatFloat(pair.B[i], 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// ReadPairCSV reads a file written by WritePairCSV. The header names the symbols.
// Timestamps may be RFC3339 or YYYY-MM-DD.
func ReadPairCSV(path string) (*models.PairSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pair := &models.PairSeries{
		SymbolA: strings.ToUpper(strings.TrimSpace(header[1])),
		SymbolB: strings.ToUpper(strings.TrimSpace(header[2])),
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s price: %w", line, pair.SymbolA, err)
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s price: %w", line, pair.SymbolB, err)
		}

		pair.Timestamps = append(pair.Timestamps, ts)
		pair.A = append(pair.A, a)
		pair.B = append(pair.B, b)
	}

	if err := pair.Validate(); err != nil {
		return nil, err
	}
	return pair, nil
}

// Slice returns the rows with start <= timestamp < end. Zero bounds are open.
func Slice(pair *models.PairSeries, start, end time.Time) *models.PairSeries {
	out := &models.PairSeries{SymbolA: pair.SymbolA, SymbolB: pair.SymbolB}
	for i, ts := range pair.Timestamps {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && !ts.Before(end) {
			continue
		}
		out.Timestamps = append(out.Timestamps, ts)
		out.A = append(out.A, pair.A[i])
		out.B = append(out.B, pair.B[i])
	}
	return out
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
