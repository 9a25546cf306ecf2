// Package portfolio loads user-supplied position files. Files arrive with
// loose column guarantees; everything goes through schema reconciliation
// before anything downstream sees it.
package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jaychengg/antig/internal/schema"
)

// ParseCSV reads a positions file into raw records. Header cells are kept
// as-is for the reconciler to resolve; spreadsheet export artifacts
// ("Unnamed: 3", blank headers) are dropped.
func ParseCSV(r io.Reader) ([]schema.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	keep := make([]int, 0, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" || strings.HasPrefix(col, "Unnamed") {
			continue
		}
		keep = append(keep, i)
	}

	var records []schema.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		rec := make(schema.RawRecord, len(keep))
		empty := true
		for _, i := range keep {
			if i >= len(row) {
				continue
			}
			rec[strings.TrimSpace(header[i])] = row[i]
			if strings.TrimSpace(row[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Positions reconciles raw rows into canonical positions. The first bad
// row aborts the file with the row and column identified; missing fields
// are never defaulted.
func Positions(records []schema.RawRecord) ([]schema.CanonicalPosition, error) {
	positions := make([]schema.CanonicalPosition, 0, len(records))
	for i, rec := range records {
		p, err := schema.ReconcilePosition(rec)
		if err != nil {
			// +2: one for the header line, one for 1-based numbering.
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// Aggregate merges duplicate tickers into net positions with a
// share-weighted average cost. Zero-share results are dropped as closed.
// Output is sorted by ticker.
func Aggregate(positions []schema.CanonicalPosition) []schema.CanonicalPosition {
	type acc struct {
		shares float64
		cost   float64 // total cost basis
	}
	byTicker := make(map[string]*acc)
	for _, p := range positions {
		a, ok := byTicker[p.Ticker]
		if !ok {
			a = &acc{}
			byTicker[p.Ticker] = a
		}
		a.shares += p.Shares
		a.cost += p.Shares * p.AvgCost
	}

	out := make([]schema.CanonicalPosition, 0, len(byTicker))
	for ticker, a := range byTicker {
		if a.shares == 0 {
			continue
		}
		out = append(out, schema.CanonicalPosition{
			Ticker:  ticker,
			Shares:  a.shares,
			AvgCost: a.cost / a.shares,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Load is the full user-file path: parse, reconcile, aggregate.
func Load(r io.Reader) ([]schema.CanonicalPosition, error) {
	records, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	positions, err := Positions(records)
	if err != nil {
		return nil, err
	}
	return Aggregate(positions), nil
}
