package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/rvenkat/swing-trader/internal/auditlog"
	"github.com/rvenkat/swing-trader/internal/broker"
	"github.com/rvenkat/swing-trader/internal/config"
)

// Prints a performance report: live account state, open positions, and
// aggregates over the recorded run history.
func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	startingCash := flag.Float64("starting-cash", 100000, "initial capital for total-return calculation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	client, err := broker.NewAlpacaClient(cfg.Broker, cfg.MarketData)
	if err != nil {
		log.Fatalf("broker client: %v", err)
	}

	account, err := client.GetAccount(ctx)
	if err != nil {
		log.Fatalf("get account: %v", err)
	}
	totalReturn := (account.PortfolioValue - *startingCash) / *startingCash * 100

	fmt.Printf("Cash: $%.2f\n", account.Cash)
	fmt.Printf("Portfolio value: $%.2f\n", account.PortfolioValue)
	fmt.Printf("Total return: %+.2f%%\n\n", totalReturn)

	positions, err := client.ListPositions(ctx)
	if err != nil {
		log.Fatalf("list positions: %v", err)
	}
	if len(positions) == 0 {
		fmt.Println("No open positions")
	} else {
		fmt.Printf("Open positions (%d):\n", len(positions))
		for _, p := range positions {
			fmt.Printf("  %s: %d shares | entry $%.2f | current $%.2f | P/L %+.2f%%\n",
				p.Symbol, p.Qty, p.AvgEntryPrice, p.CurrentPrice, p.UnrealizedPLPct*100)
		}
	}

	records, err := auditlog.NewStore(cfg.Paths.TradeLog).ReadAll()
	if err != nil {
		log.Fatalf("read audit log: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("\nNo trade history yet")
		return
	}

	s := auditlog.Summarize(records)
	fmt.Printf("\nRun history (%d runs):\n", s.Runs)
	fmt.Printf("  BUYs: %d  SELLs: %d  SKIPs: %d  failures: %d\n", s.Buys, s.Sells, s.Skips, s.Failures)
	fmt.Printf("  Peak value: $%.2f\n", s.PeakValue)
	fmt.Printf("  Lowest value: $%.2f\n", s.TroughValue)
	fmt.Printf("  Max drawdown: %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("  First run: %s\n", records[0].RunTime.Format("2006-01-02"))
	fmt.Printf("  Latest run: %s\n", records[len(records)-1].RunTime.Format("2006-01-02"))
}
