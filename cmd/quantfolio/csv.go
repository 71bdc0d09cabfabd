package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quantfolio/quantfolio/internal/series"
)

// loadSeries reads one normalized CSV of "date,pnl" rows into a trade
// series. Column mapping and name normalization happen upstream; this loader
// only accepts the already-normalized shape. A header row is skipped when
// the first field does not parse as a date.
func loadSeries(path string) (series.TradeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return series.TradeSeries{}, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	rows, err := r.ReadAll()
	if err != nil {
		return series.TradeSeries{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ts := series.TradeSeries{Name: name}
	for i, row := range rows {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return series.TradeSeries{}, fmt.Errorf("%s row %d: bad date %q: %w", path, i+1, row[0], err)
		}
		pnl, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return series.TradeSeries{}, fmt.Errorf("%s row %d: bad pnl %q: %w", path, i+1, row[1], err)
		}
		ts.Points = append(ts.Points, series.Point{Date: date, PnL: pnl})
	}

	if err := ts.Validate(); err != nil {
		return series.TradeSeries{}, err
	}
	return ts, nil
}

// loadAll reads each path into its own trade series.
func loadAll(paths []string) ([]series.TradeSeries, error) {
	list := make([]series.TradeSeries, 0, len(paths))
	for _, p := range paths {
		ts, err := loadSeries(p)
		if err != nil {
			return nil, err
		}
		list = append(list, ts)
	}
	return list, nil
}

// writeEquityCSV exports an account curve for chart-rendering collaborators.
func writeEquityCSV(path string, curve series.AccountCurve) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create equity file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "equity"}); err != nil {
		return err
	}
	for _, p := range curve.Points {
		record := []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Equity, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// parseWeights splits a comma-separated multiplier list.
func parseWeights(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad weight %q: %w", p, err)
		}
		weights = append(weights, w)
	}
	return weights, nil
}
