package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaychengg/antig/internal/config"
	"github.com/jaychengg/antig/internal/feed"
	"github.com/jaychengg/antig/internal/marketcache"
	"github.com/jaychengg/antig/internal/observ"
	"github.com/jaychengg/antig/internal/pipeline"
	"github.com/jaychengg/antig/internal/portfolio"
	"github.com/jaychengg/antig/internal/sanity"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	symbolsArg := flag.String("symbols", "", "comma-separated symbols to ingest")
	rangeArg := flag.String("range", "3mo", "series range: 1mo|3mo|6mo|1y")
	positionsPath := flag.String("positions", "", "optional positions CSV to load")
	pretty := flag.Bool("pretty", false, "human-readable log output")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	observ.Setup(cfg.LogLevel, *pretty)
	logger := observ.Logger("ingestd")

	apiKey := os.Getenv("FINAZON_API_KEY")
	if apiKey == "" && *symbolsArg != "" {
		logger.Fatal().Msg("FINAZON_API_KEY is not set")
	}

	if *positionsPath != "" {
		f, err := os.Open(*positionsPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("opening positions file")
		}
		positions, err := portfolio.Load(f)
		f.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("loading positions")
		}
		for _, p := range positions {
			logger.Info().
				Str("ticker", p.Ticker).
				Float64("shares", p.Shares).
				Float64("avg_cost", p.AvgCost).
				Msg("position loaded")
		}
	}

	if *symbolsArg == "" {
		return
	}
	symbols := splitSymbols(*symbolsArg)

	client := feed.NewClient(apiKey, cfg.Feed, observ.Logger("feed"))
	auditor := sanity.New(cfg.Sanity, nil)
	cache := marketcache.NewStore()
	pipe := pipeline.New(client, auditor, cache, cfg.Source, observ.Logger("pipeline"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results := pipe.Refresh(ctx, symbols, *rangeArg)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error().Str("symbol", r.Symbol).Bool("retried", r.Retried).Err(r.Err).Msg("ingest failed")
			continue
		}
		logger.Info().
			Str("symbol", r.Symbol).
			Int("bars", len(r.Bars)).
			Bool("retried", r.Retried).
			Msg("ingest ok")
	}

	status := client.Governor().Status()
	logger.Info().
		Int("budget_used", status.Used).
		Int("budget_remaining", status.Remaining).
		Bool("power_save", status.PowerSave).
		Int("cached_entries", cache.Len()).
		Msg("done")

	if failed == len(symbols) {
		os.Exit(1)
	}
}

func splitSymbols(arg string) []string {
	parts := strings.Split(arg, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
