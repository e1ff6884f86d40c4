package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dispersion/internal/model"
)

// cachePath derives the deterministic artifact path for a normalized query.
func cachePath(dir string, q Query) string {
	return filepath.Join(dir, q.key()+".csv")
}

// isCacheMiss reports whether a cache read error means "no artifact yet"
// rather than a real I/O failure.
func isCacheMiss(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// writeCacheFile persists a table as a flat CSV: header row of
// "timestamp" plus symbols, RFC3339 UTC timestamps, and float cells
// formatted for exact round-trip. Missing cells are empty.
func writeCacheFile(path string, t *model.PriceTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	symbols := t.Symbols()
	header := append([]string{"timestamp"}, symbols...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]string, 0, len(symbols)+1)
		row = append(row, t.Time(i).UTC().Format(time.RFC3339))
		for j := range symbols {
			v := t.At(i, j)
			if math.IsNaN(v) {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readCacheFile loads a previously written artifact. A missing file is a
// cache miss (os.ErrNotExist); anything else is a real failure.
func readCacheFile(path string) (*model.PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "timestamp" {
		return nil, fmt.Errorf("malformed cache file %s", path)
	}

	symbols := records[0][1:]
	times := make([]time.Time, 0, len(records)-1)
	for _, rec := range records[1:] {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", rec[0], err)
		}
		times = append(times, ts.UTC())
	}

	t := model.NewPriceTable(times, symbols)
	for i, rec := range records[1:] {
		for j := range symbols {
			cell := rec[j+1]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("parse value %q: %w", cell, err)
			}
			t.Set(i, j, v)
		}
	}
	return t, nil
}
