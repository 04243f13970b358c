package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"github.com/rvenkat/swing-trader/internal/config"
	"github.com/rvenkat/swing-trader/internal/features"
	"github.com/rvenkat/swing-trader/internal/marketdata"
	"github.com/rvenkat/swing-trader/internal/observ"
)

// Builds the training dataset: one CSV per instrument with every feature
// column plus the target label, ready for the offline training collaborator.
// The same feature engine serves live inference, so the two cannot drift.
func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	lookback := flag.Int("lookback", 0, "override lookback days for history fetch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	days := cfg.Strategy.LookbackDays
	if *lookback > 0 {
		days = *lookback
	}

	provider, err := marketdata.NewAlpacaProvider(cfg.MarketData)
	if err != nil {
		log.Fatalf("market data provider: %v", err)
	}

	ctx := context.Background()
	for _, sym := range cfg.Strategy.Instruments {
		bars, err := provider.GetBars(ctx, sym, days)
		if err != nil {
			log.Fatalf("fetch bars for %s: %v", sym, err)
		}
		rows := features.Compute(bars, &cfg.Strategy.TargetReturn)

		path := filepath.Join(cfg.Paths.DataDir, sym+"_features.csv")
		if err := features.WriteDataset(path, rows); err != nil {
			log.Fatalf("write dataset for %s: %v", sym, err)
		}
		observ.Log("dataset_written", map[string]any{
			"symbol":       sym,
			"sessions":     len(bars),
			"rows_kept":    len(rows),
			"rows_dropped": len(bars) - len(rows),
			"path":         path,
		})
	}
}
