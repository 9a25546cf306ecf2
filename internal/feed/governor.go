package feed

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jaychengg/antig/internal/observ"
)

// GovernorConfig bounds what the feed is allowed to cost per day.
type GovernorConfig struct {
	DailyRequestCap    int     `yaml:"daily_request_cap"`
	PerSymbolDailyCap  int     `yaml:"per_symbol_daily_cap"`
	RequestsPerMinute  float64 `yaml:"requests_per_minute"`
	Burst              int     `yaml:"burst"`
	PowerSaveThreshold int     `yaml:"power_save_threshold"`
}

func (c GovernorConfig) withDefaults() GovernorConfig {
	if c.DailyRequestCap == 0 {
		c.DailyRequestCap = 850
	}
	if c.PerSymbolDailyCap == 0 {
		c.PerSymbolDailyCap = 30
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 18
	}
	if c.Burst == 0 {
		c.Burst = 6
	}
	if c.PowerSaveThreshold == 0 {
		c.PowerSaveThreshold = 150
	}
	return c
}

// Governor guards the external quote provider against budget overruns:
// a daily request cap, a per-symbol daily cap, and a token-bucket rate
// limit. Counters reset at the UTC day boundary.
type Governor struct {
	mu        sync.Mutex
	cfg       GovernorConfig
	limiter   *rate.Limiter
	day       string
	requests  int
	perSymbol map[string]int
	now       func() time.Time
}

// GovernorStatus is a point-in-time budget snapshot.
type GovernorStatus struct {
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	PowerSave bool `json:"power_save"`
}

func NewGovernor(cfg GovernorConfig) *Governor {
	cfg = cfg.withDefaults()
	return &Governor{
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), cfg.Burst),
		perSymbol: make(map[string]int),
		now:       time.Now,
	}
}

// Allow decides whether one more request for symbol may go out now. The
// returned reason identifies which budget blocked it.
func (g *Governor) Allow(symbol string) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rolloverLocked()

	if g.requests >= g.cfg.DailyRequestCap {
		observ.IncCounter("feed_requests_blocked_total", map[string]string{"reason": "daily_budget"})
		return false, "daily budget exceeded"
	}
	if g.perSymbol[symbol] >= g.cfg.PerSymbolDailyCap {
		observ.IncCounter("feed_requests_blocked_total", map[string]string{"reason": "symbol_budget"})
		return false, "symbol budget exceeded"
	}
	if !g.limiter.Allow() {
		observ.IncCounter("feed_requests_blocked_total", map[string]string{"reason": "rate_limit"})
		return false, "rate limited"
	}

	g.requests++
	g.perSymbol[symbol]++
	return true, "ok"
}

// PowerSaving reports whether the remaining daily budget has dropped
// below the configured threshold; callers should skip optional fetches.
func (g *Governor) PowerSaving() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	return g.cfg.DailyRequestCap-g.requests < g.cfg.PowerSaveThreshold
}

// Status returns the current budget usage.
func (g *Governor) Status() GovernorStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	return GovernorStatus{
		Used:      g.requests,
		Remaining: g.cfg.DailyRequestCap - g.requests,
		PowerSave: g.cfg.DailyRequestCap-g.requests < g.cfg.PowerSaveThreshold,
	}
}

func (g *Governor) rolloverLocked() {
	day := g.now().UTC().Format("2006-01-02")
	if day != g.day {
		g.day = day
		g.requests = 0
		g.perSymbol = make(map[string]int)
	}
}
