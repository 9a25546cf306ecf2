package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jaychengg/antig/internal/normalize"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumeric
	kindInteger
	kindDate
)

// Field is one required column of a canonical schema.
type Field struct {
	Name string
	Kind fieldKind
}

// Schema is a fixed, case-correct column set a record family must conform
// to before downstream use.
type Schema struct {
	Name   string
	Fields []Field
}

// Position is the canonical portfolio-position schema.
var Position = Schema{
	Name: "position",
	Fields: []Field{
		{Name: "Ticker", Kind: kindText},
		{Name: "Shares", Kind: kindNumeric},
		{Name: "Avg Cost", Kind: kindNumeric},
	},
}

// Bar is the canonical market time-series schema.
var Bar = Schema{
	Name: "bar",
	Fields: []Field{
		{Name: "Date", Kind: kindDate},
		{Name: "Open", Kind: kindNumeric},
		{Name: "High", Kind: kindNumeric},
		{Name: "Low", Kind: kindNumeric},
		{Name: "Close", Kind: kindNumeric},
		{Name: "Volume", Kind: kindInteger},
	},
}

// aliases maps lowercased column variants onto canonical names. The
// single-letter entries cover the Finazon wire envelope (t/o/h/l/c/v);
// the rest cover known misspellings and spreadsheet variants.
var aliases = map[string]string{
	"ticker": "Ticker",
	"ticket": "Ticker",
	"symbol": "Ticker",

	"shares":     "Shares",
	"share":      "Shares",
	"qty":        "Shares",
	"quantity":   "Shares",
	"net shares": "Shares",

	"avg cost":     "Avg Cost",
	"avgcost":      "Avg Cost",
	"avg_cost":     "Avg Cost",
	"average cost": "Avg Cost",
	"cost":         "Avg Cost",

	"date":     "Date",
	"datetime": "Date",
	"t":        "Date",

	"open": "Open",
	"o":    "Open",

	"high": "High",
	"h":    "High",

	"low": "Low",
	"l":   "Low",

	"close":     "Close",
	"adj close": "Close",
	"c":         "Close",

	"volume": "Volume",
	"vol":    "Volume",
	"v":      "Volume",
}

// CanonicalName resolves a raw column header onto a canonical column name.
func CanonicalName(column string) (string, bool) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(column))]
	return name, ok
}

// Reconcile maps one raw record onto the given schema. Every required
// column must be present after alias resolution and must parse for its
// declared kind; otherwise a SchemaError naming the column is returned.
func Reconcile(rec RawRecord, s Schema) (map[string]any, error) {
	resolved := resolveColumns(rec)

	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := resolved[f.Name]
		if !ok {
			return nil, &SchemaError{Schema: s.Name, Column: f.Name}
		}

		switch f.Kind {
		case kindText:
			out[f.Name] = strings.TrimSpace(fmt.Sprint(raw))
		case kindNumeric:
			v, err := normalize.Value(raw)
			if err != nil {
				return nil, &SchemaError{Schema: s.Name, Column: f.Name, Err: err}
			}
			out[f.Name] = v
		case kindInteger:
			v, err := normalize.Value(raw)
			if err != nil {
				return nil, &SchemaError{Schema: s.Name, Column: f.Name, Err: err}
			}
			if v != math.Trunc(v) {
				return nil, &SchemaError{Schema: s.Name, Column: f.Name, Err: fmt.Errorf("non-integral value %v", v)}
			}
			out[f.Name] = int64(v)
		case kindDate:
			d, err := parseDate(raw)
			if err != nil {
				return nil, &SchemaError{Schema: s.Name, Column: f.Name, Err: err}
			}
			out[f.Name] = d
		}
	}
	return out, nil
}

// ReconcilePosition reconciles one raw portfolio row.
func ReconcilePosition(rec RawRecord) (CanonicalPosition, error) {
	m, err := Reconcile(rec, Position)
	if err != nil {
		return CanonicalPosition{}, err
	}

	p := CanonicalPosition{
		Ticker:  strings.ToUpper(m["Ticker"].(string)),
		Shares:  m["Shares"].(float64),
		AvgCost: m["Avg Cost"].(float64),
	}
	if p.Ticker == "" {
		return CanonicalPosition{}, &SchemaError{Schema: Position.Name, Column: "Ticker", Err: fmt.Errorf("empty ticker")}
	}
	if p.Shares < 0 {
		return CanonicalPosition{}, &SchemaError{Schema: Position.Name, Column: "Shares", Err: fmt.Errorf("negative shares %v", p.Shares)}
	}
	if p.AvgCost < 0 {
		return CanonicalPosition{}, &SchemaError{Schema: Position.Name, Column: "Avg Cost", Err: fmt.Errorf("negative cost %v", p.AvgCost)}
	}
	return p, nil
}

// ReconcileBar reconciles one raw time-series row. Gross price sanity is
// the auditor's job, not this function's; only shape and types are
// enforced here.
func ReconcileBar(rec RawRecord) (CanonicalBar, error) {
	m, err := Reconcile(rec, Bar)
	if err != nil {
		return CanonicalBar{}, err
	}

	b := CanonicalBar{
		Date:   m["Date"].(time.Time),
		Open:   m["Open"].(float64),
		High:   m["High"].(float64),
		Low:    m["Low"].(float64),
		Close:  m["Close"].(float64),
		Volume: m["Volume"].(int64),
	}
	if b.Volume < 0 {
		return CanonicalBar{}, &SchemaError{Schema: Bar.Name, Column: "Volume", Err: fmt.Errorf("negative volume %d", b.Volume)}
	}
	return b, nil
}

// resolveColumns applies alias resolution over a raw record. Keys are
// visited in sorted order so duplicate aliases resolve deterministically
// (first alias in sort order wins).
func resolveColumns(rec RawRecord) map[string]any {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]any, len(rec))
	for _, k := range keys {
		name, ok := CanonicalName(k)
		if !ok {
			continue
		}
		if _, seen := resolved[name]; seen {
			continue
		}
		resolved[name] = rec[k]
	}
	return resolved
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// parseDate accepts time.Time values, epoch seconds (how Finazon ships
// dates) and common date strings.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case float64:
		return time.Unix(int64(d), 0).UTC(), nil
	case int:
		return time.Unix(int64(d), 0).UTC(), nil
	case int64:
		return time.Unix(d, 0).UTC(), nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}
