// Package schema reconciles loosely shaped inbound records onto the two
// canonical record families the rest of the system trusts: portfolio
// positions and daily market bars.
package schema

import (
	"fmt"
	"time"
)

// RawRecord is an untyped row as delivered by a feed or a user file:
// arbitrary column casing, values that may be numbers or adorned strings.
type RawRecord map[string]any

// CanonicalPosition is a reconciled portfolio row.
type CanonicalPosition struct {
	Ticker  string  `json:"ticker"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

// CanonicalBar is one reconciled OHLCV bar for a (symbol, date).
type CanonicalBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SchemaError reports a required column that is missing, or present but
// invalid, after alias resolution. Missing required fields are never
// defaulted; the record is rejected instead.
type SchemaError struct {
	Schema string
	Column string
	Err    error // nil when the column is absent outright
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s record: column %q: %v", e.Schema, e.Column, e.Err)
	}
	return fmt.Sprintf("%s record: missing required column %q", e.Schema, e.Column)
}

func (e *SchemaError) Unwrap() error { return e.Err }
