// Package pipeline drives raw records through reconciliation and audit
// into the cache. It owns the bounded self-healing policy: a failed audit
// invalidates the cache entry and buys exactly one refetch; a second
// failure surfaces as a per-symbol error without touching other symbols.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaychengg/antig/internal/marketcache"
	"github.com/jaychengg/antig/internal/observ"
	"github.com/jaychengg/antig/internal/sanity"
	"github.com/jaychengg/antig/internal/schema"
)

// Fetcher is the external quote-source collaborator.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol, rng string) ([]schema.RawRecord, error)
}

// AuditViolationError reports a symbol whose data failed sanity twice,
// once on the original fetch and once on the retry.
type AuditViolationError struct {
	Symbol     string
	Violations []sanity.Violation
}

func (e *AuditViolationError) Error() string {
	reasons := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		reasons = append(reasons, v.Reason)
	}
	return fmt.Sprintf("audit failed for %s after retry: %s", e.Symbol, strings.Join(reasons, "; "))
}

// SymbolResult is the per-symbol outcome of a Refresh. Exactly one of
// Bars or Err is meaningful.
type SymbolResult struct {
	Symbol  string
	Bars    []schema.CanonicalBar
	Retried bool
	Err     error
}

// Pipeline wires fetcher, auditor and cache together for one source.
type Pipeline struct {
	fetcher Fetcher
	auditor *sanity.Auditor
	cache   *marketcache.Store
	source  string
	logger  zerolog.Logger
}

func New(fetcher Fetcher, auditor *sanity.Auditor, cache *marketcache.Store, source string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		auditor: auditor,
		cache:   cache,
		source:  source,
		logger:  logger,
	}
}

// Refresh runs the full gate for each symbol. One bad symbol never aborts
// the batch: its result carries the error, the rest carry bars.
func (p *Pipeline) Refresh(ctx context.Context, symbols []string, rng string) []SymbolResult {
	results := make([]SymbolResult, 0, len(symbols))
	for _, symbol := range symbols {
		bars, retried, err := p.refreshOne(ctx, symbol, rng)
		if err != nil {
			p.logger.Warn().Str("symbol", symbol).Bool("retried", retried).Err(err).Msg("symbol refresh failed")
			observ.IncCounter("pipeline_symbol_failures_total", map[string]string{"symbol": symbol})
		}
		results = append(results, SymbolResult{Symbol: symbol, Bars: bars, Retried: retried, Err: err})
	}
	return results
}

// Series returns cached validated bars for a symbol, refreshing through
// the gate on a cache miss.
func (p *Pipeline) Series(ctx context.Context, symbol, rng string) ([]schema.CanonicalBar, error) {
	key := p.key(symbol, rng)
	if entry, ok := p.cache.Get(key); ok && entry.Validated {
		return entry.Payload, nil
	}
	bars, _, err := p.refreshOne(ctx, symbol, rng)
	return bars, err
}

// refreshOne is the single-symbol gate: fetch, reconcile, audit, store.
// On audit failure it invalidates the cache entry and retries the fetch
// exactly once; a second audit failure is surfaced, never looped on.
func (p *Pipeline) refreshOne(ctx context.Context, symbol, rng string) ([]schema.CanonicalBar, bool, error) {
	key := p.key(symbol, rng)

	bars, err := p.fetchCanonical(ctx, symbol, rng)
	if err != nil {
		return nil, false, err
	}

	res := p.auditor.Audit(bars, symbol)
	p.logWarnings(symbol, res)
	if res.OK {
		p.cache.Put(key, bars)
		return bars, false, nil
	}

	p.logger.Warn().
		Str("symbol", symbol).
		Int("violations", len(res.Violations)).
		Msg("audit failed, invalidating cache and refetching once")
	p.cache.Invalidate(key)
	observ.IncCounter("pipeline_retries_total", map[string]string{"symbol": symbol})

	bars, err = p.fetchCanonical(ctx, symbol, rng)
	if err != nil {
		return nil, true, err
	}

	res = p.auditor.Audit(bars, symbol)
	p.logWarnings(symbol, res)
	if !res.OK {
		return nil, true, &AuditViolationError{Symbol: symbol, Violations: res.Violations}
	}

	p.cache.Put(key, bars)
	return bars, true, nil
}

// fetchCanonical pulls raw records and reconciles them. A single bad
// record poisons the whole series: partial bar sequences would silently
// skew anything computed downstream, so the batch is rejected.
func (p *Pipeline) fetchCanonical(ctx context.Context, symbol, rng string) ([]schema.CanonicalBar, error) {
	records, err := p.fetcher.FetchSeries(ctx, symbol, rng)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}

	bars := make([]schema.CanonicalBar, 0, len(records))
	for i, rec := range records {
		bar, err := schema.ReconcileBar(rec)
		if err != nil {
			return nil, fmt.Errorf("reconciling %s record %d: %w", symbol, i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (p *Pipeline) logWarnings(symbol string, res sanity.Result) {
	for _, w := range res.Warnings {
		p.logger.Warn().Str("symbol", symbol).Time("date", w.Date).Str("reason", w.Reason).Msg("sanity warning")
	}
}

func (p *Pipeline) key(symbol, rng string) marketcache.Key {
	return marketcache.Key{Source: p.source, Symbol: symbol, Range: rng}
}
