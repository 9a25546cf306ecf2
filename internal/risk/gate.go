// Package risk validates proposed manual trades. The gate is a pure
// function over its inputs: no account lookups, no I/O, no shared state.
// A rejected trade is data (Verdict.Pass=false), not an error.
package risk

import (
	"fmt"
	"math"
)

// TradeProposal carries the entire input of one gate evaluation.
type TradeProposal struct {
	Entry         float64 `json:"entry"`
	Stop          float64 `json:"stop"`
	Shares        float64 `json:"shares"`
	AccountEquity float64 `json:"account_equity"`
	ATR14         float64 `json:"atr_14"`
}

// Verdict is the immutable result of one evaluation.
type Verdict struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
}

// GateConfig tunes the two checks. Zero values fall back to the standard
// limits: stops at least 1.5x ATR14 wide, at most 2% of equity at risk.
type GateConfig struct {
	ATRMultiplier   float64 `yaml:"atr_multiplier"`
	MaxRiskFraction float64 `yaml:"max_risk_fraction"`
}

func (c GateConfig) withDefaults() GateConfig {
	if c.ATRMultiplier == 0 {
		c.ATRMultiplier = 1.5
	}
	if c.MaxRiskFraction == 0 {
		c.MaxRiskFraction = 0.02
	}
	return c
}

// Evaluate runs the volatility check then the capital-at-risk check; the
// first failing rule determines the verdict.
func Evaluate(p TradeProposal, cfg GateConfig) Verdict {
	cfg = cfg.withDefaults()

	if field, bad := invalidField(p); bad {
		return Verdict{
			Pass:   false,
			Reason: "invalid proposal",
			Advice: fmt.Sprintf("%s must be a positive number", field),
		}
	}

	stopDistance := math.Abs(p.Entry - p.Stop)
	minStop := cfg.ATRMultiplier * p.ATR14

	if stopDistance < minStop {
		advice := fmt.Sprintf("widen stop to at least %.2f from entry (%.1fx ATR14 = %.2f)",
			minStop, cfg.ATRMultiplier, minStop)
		if stopDistance == 0 {
			advice = "invalid stop: equals entry"
		}
		return Verdict{Pass: false, Reason: "stop too tight", Advice: advice}
	}

	riskAmount := p.Shares * stopDistance
	maxRisk := cfg.MaxRiskFraction * p.AccountEquity

	if riskAmount > maxRisk {
		// stopDistance >= minStop > 0 here, so the division is safe.
		maxShares := int(math.Floor(maxRisk / stopDistance))
		return Verdict{
			Pass:   false,
			Reason: "risk exceeds limit",
			Advice: fmt.Sprintf("reduce size to at most %d shares to keep risk within %.1f%% of equity",
				maxShares, cfg.MaxRiskFraction*100),
		}
	}

	return Verdict{Pass: true, Reason: "within risk limits"}
}

func invalidField(p TradeProposal) (string, bool) {
	switch {
	case p.Entry <= 0:
		return "entry", true
	case p.Stop <= 0:
		return "stop", true
	case p.Shares <= 0:
		return "shares", true
	case p.AccountEquity <= 0:
		return "account equity", true
	case p.ATR14 <= 0:
		return "atr14", true
	}
	return "", false
}
