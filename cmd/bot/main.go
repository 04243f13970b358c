package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/rvenkat/swing-trader/internal/auditlog"
	"github.com/rvenkat/swing-trader/internal/broker"
	"github.com/rvenkat/swing-trader/internal/config"
	"github.com/rvenkat/swing-trader/internal/executor"
	"github.com/rvenkat/swing-trader/internal/features"
	"github.com/rvenkat/swing-trader/internal/marketdata"
	"github.com/rvenkat/swing-trader/internal/model"
	"github.com/rvenkat/swing-trader/internal/observ"
	"github.com/rvenkat/swing-trader/internal/signal"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	force := flag.Bool("force", false, "run even on weekends")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	now := time.Now()
	if !*force && (now.Weekday() == time.Saturday || now.Weekday() == time.Sunday) {
		observ.Log("run_skipped", map[string]any{"reason": "weekend"})
		return
	}

	ctx := context.Background()

	brokerClient, err := broker.NewAlpacaClient(cfg.Broker, cfg.MarketData)
	if err != nil {
		log.Fatalf("broker client: %v", err)
	}
	provider, err := marketdata.NewAlpacaProvider(cfg.MarketData)
	if err != nil {
		log.Fatalf("market data provider: %v", err)
	}
	scorer := model.NewStore(cfg.Paths.ModelDir, len(features.Columns))
	defer scorer.Close()

	observ.Log("run_start", map[string]any{
		"instruments": cfg.Strategy.Instruments,
		"time":        now.Format(time.RFC3339),
	})

	// No safe decision exists without the account snapshot.
	account, err := brokerClient.GetAccount(ctx)
	if err != nil {
		log.Fatalf("account snapshot: %v", err)
	}
	observ.Log("account", map[string]any{
		"cash":            account.Cash,
		"portfolio_value": account.PortfolioValue,
		"status":          account.Status,
	})

	gen := &signal.Generator{
		Provider:     provider,
		Scorer:       scorer,
		Threshold:    cfg.Strategy.BuyThreshold,
		LookbackDays: cfg.Strategy.LookbackDays,
	}
	signals := gen.Generate(ctx, cfg.Strategy.Instruments)

	exec := &executor.Executor{
		Broker:        brokerClient,
		StopLossPct:   cfg.Strategy.StopLossPct,
		TakeProfitPct: cfg.Strategy.TakeProfitPct,
		Tiers:         cfg.SizingTiers,
	}
	trades, err := exec.Run(ctx, cfg.Strategy.Instruments, signals)
	if err != nil {
		log.Fatalf("execution cycle: %v", err)
	}

	sigSummary := make(map[string]string, len(signals))
	for sym, res := range signals {
		sigSummary[sym] = string(res.Signal)
	}
	store := auditlog.NewStore(cfg.Paths.TradeLog)
	rec := auditlog.RunRecord{
		RunTime:        now,
		Cash:           account.Cash,
		PortfolioValue: account.PortfolioValue,
		Signals:        sigSummary,
		Trades:         trades,
	}
	if err := store.Append(rec); err != nil {
		log.Fatalf("append audit log: %v", err)
	}

	observ.Log("run_done", map[string]any{"trades": len(trades), "log": cfg.Paths.TradeLog})
}
