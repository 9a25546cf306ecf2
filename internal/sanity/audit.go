// Package sanity applies gross domain-range checks to reconciled market
// data. It classifies, never mutates: reacting to a failed audit
// (cache invalidation, refetch) is the pipeline's job.
package sanity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaychengg/antig/internal/observ"
	"github.com/jaychengg/antig/internal/schema"
)

// Violation is one failed check, tied to the bar date that triggered it.
type Violation struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// Result is the outcome of auditing one symbol's bar sequence. Warnings
// are advisory only and never fail the audit.
type Result struct {
	Symbol     string      `json:"symbol"`
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Violation `json:"warnings,omitempty"`
}

// Config sets the implausible-price ceiling per symbol class. A close at
// or below zero, or above the class ceiling, marks the data as corrupt
// rather than real.
type Config struct {
	DefaultCeiling float64            `yaml:"default_ceiling"`
	Ceilings       map[string]float64 `yaml:"ceilings"` // symbol class -> ceiling
}

func (c Config) withDefaults() Config {
	if c.DefaultCeiling == 0 {
		c.DefaultCeiling = 5000
	}
	return c
}

// Classifier buckets a symbol into a ceiling class ("equity", "crypto", ...).
type Classifier func(symbol string) string

// DefaultClassifier mirrors the feed's dataset split: dash-suffixed USD
// pairs are crypto, everything else is treated as US equity.
func DefaultClassifier(symbol string) string {
	if strings.Contains(symbol, "-") && strings.HasSuffix(symbol, "USD") {
		return "crypto"
	}
	return "equity"
}

// Auditor runs the per-symbol sanity rules.
type Auditor struct {
	cfg      Config
	classify Classifier
}

// New builds an Auditor. A nil classifier falls back to DefaultClassifier.
func New(cfg Config, classify Classifier) *Auditor {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &Auditor{cfg: cfg.withDefaults(), classify: classify}
}

// Ceiling reports the implausible-price bound applied to a symbol.
func (a *Auditor) Ceiling(symbol string) float64 {
	if v, ok := a.cfg.Ceilings[a.classify(symbol)]; ok && v > 0 {
		return v
	}
	return a.cfg.DefaultCeiling
}

// Audit classifies a symbol's bar sequence. An empty sequence is itself a
// violation; per bar, a close at or below zero, or above the class
// ceiling, is a violation. OHLC range inconsistencies are reported as warnings.
func (a *Auditor) Audit(bars []schema.CanonicalBar, symbol string) Result {
	res := Result{Symbol: symbol}

	if len(bars) == 0 {
		res.Violations = append(res.Violations, Violation{Reason: "no data"})
		observ.IncCounter("sanity_violations_total", map[string]string{"symbol": symbol, "reason": "no_data"})
		return res
	}

	ceiling := a.Ceiling(symbol)
	for _, b := range bars {
		switch {
		case b.Close <= 0:
			res.Violations = append(res.Violations, Violation{
				Date:   b.Date,
				Reason: "close is not positive",
			})
			observ.IncCounter("sanity_violations_total", map[string]string{"symbol": symbol, "reason": "nonpositive_close"})
		case b.Close > ceiling:
			res.Violations = append(res.Violations, Violation{
				Date:   b.Date,
				Reason: fmt.Sprintf("close %.2f above ceiling %.2f", b.Close, ceiling),
			})
			observ.IncCounter("sanity_violations_total", map[string]string{"symbol": symbol, "reason": "above_ceiling"})
		}

		if inconsistentRange(b) {
			res.Warnings = append(res.Warnings, Violation{
				Date:   b.Date,
				Reason: fmt.Sprintf("ohlc range inconsistent: o=%.2f h=%.2f l=%.2f c=%.2f", b.Open, b.High, b.Low, b.Close),
			})
		}
	}

	res.OK = len(res.Violations) == 0
	return res
}

// inconsistentRange checks Low <= min(O,C) and High >= max(O,C). Not a
// hard failure: some venues publish bars that miss this by a tick.
func inconsistentRange(b schema.CanonicalBar) bool {
	minOC, maxOC := b.Open, b.Open
	if b.Close < minOC {
		minOC = b.Close
	}
	if b.Close > maxOC {
		maxOC = b.Close
	}
	return b.Low > minOC || b.High < maxOC
}
