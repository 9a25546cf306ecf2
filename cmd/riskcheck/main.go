package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jaychengg/antig/internal/config"
	"github.com/jaychengg/antig/internal/risk"
)

func main() {
	configPath := flag.String("config", "", "optional config file for gate limits")
	entry := flag.Float64("entry", 0, "proposed entry price")
	stop := flag.Float64("stop", 0, "proposed stop price")
	shares := flag.Float64("shares", 0, "proposed share count")
	equity := flag.Float64("equity", 0, "account equity")
	atr := flag.Float64("atr", 0, "current ATR14 for the symbol")
	flag.Parse()

	var gateCfg risk.GateConfig
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		gateCfg = cfg.Risk
	}

	verdict := risk.Evaluate(risk.TradeProposal{
		Entry:         *entry,
		Stop:          *stop,
		Shares:        *shares,
		AccountEquity: *equity,
		ATR14:         *atr,
	}, gateCfg)

	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))

	if !verdict.Pass {
		os.Exit(2)
	}
}
