package executor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rvenkat/swing-trader/internal/broker"
	"github.com/rvenkat/swing-trader/internal/config"
	"github.com/rvenkat/swing-trader/internal/signal"
)

func newExecutor(mc *broker.MockClient) *Executor {
	return &Executor{
		Broker:        mc,
		StopLossPct:   -0.02,
		TakeProfitPct: 0.05,
		Tiers: []config.SizingTier{
			{MinConfidence: 0.70, CashFraction: 0.10},
			{MinConfidence: 0.65, CashFraction: 0.07},
			{MinConfidence: 0.60, CashFraction: 0.05},
		},
		Now: func() time.Time { return time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC) },
	}
}

func buySignal(sym string, confidence float64) signal.Result {
	return signal.Result{Symbol: sym, Signal: signal.Buy, Confidence: confidence}
}

func holdSignal(sym string) signal.Result {
	return signal.Result{Symbol: sym, Signal: signal.Hold, Confidence: 0.5}
}

func TestDecide_PriorityOrder(t *testing.T) {
	cases := []struct {
		name    string
		hasPos  bool
		pnl     float64
		sig     signal.Signal
		pending bool
		want    Decision
	}{
		{"stop loss beats buy signal", true, -0.03, signal.Buy, false, DecideStopLoss},
		{"stop loss at boundary", true, -0.02, signal.Buy, false, DecideStopLoss},
		{"take profit beats signal exit", true, 0.05, signal.Hold, false, DecideTakeProfit},
		{"take profit with buy signal", true, 0.06, signal.Buy, false, DecideTakeProfit},
		{"signal exit inside risk band", true, 0.01, signal.Hold, false, DecideSignalExit},
		{"hold inside risk band", true, 0.01, signal.Buy, false, DecideHoldPosition},
		{"pending blocks entry", false, 0, signal.Buy, true, DecideSkipPending},
		{"entry", false, 0, signal.Buy, false, DecideBuy},
		{"no position no signal", false, 0, signal.Hold, false, DecideSkipNoSignal},
		{"no position no signal with pending", false, 0, signal.Hold, true, DecideSkipNoSignal},
	}
	for _, c := range cases {
		got := decide(c.hasPos, c.pnl, c.sig, c.pending, -0.02, 0.05)
		if got != c.want {
			t.Fatalf("%s: want %s, got %s", c.name, c.want, got)
		}
	}
}

func TestRun_StopLossOverridesBuySignal(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Positions = []broker.Position{
		{Symbol: "AAPL", Qty: 10, AvgEntryPrice: 200, CurrentPrice: 194, UnrealizedPLPct: -0.03},
	}

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 1 || mc.Submitted[0].Side != broker.SideSell || mc.Submitted[0].Qty != 10 {
		t.Fatalf("want full-quantity SELL, got %+v", mc.Submitted)
	}
	if !strings.Contains(entries[0].Action, "stop-loss") {
		t.Fatalf("action should name stop-loss: %s", entries[0].Action)
	}
}

func TestRun_TakeProfitAndSignalExit(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Positions = []broker.Position{
		{Symbol: "AAPL", Qty: 5, UnrealizedPLPct: 0.06},
		{Symbol: "MSFT", Qty: 8, UnrealizedPLPct: 0.01},
		{Symbol: "NVDA", Qty: 3, UnrealizedPLPct: 0.01},
	}
	signals := map[string]signal.Result{
		"AAPL": buySignal("AAPL", 0.80), // take-profit wins anyway
		"MSFT": holdSignal("MSFT"),      // signal-driven exit
		"NVDA": buySignal("NVDA", 0.80), // keep holding
	}

	entries, err := newExecutor(mc).Run(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 2 {
		t.Fatalf("want 2 sells, got %+v", mc.Submitted)
	}
	if !strings.Contains(entries[0].Action, "take-profit") {
		t.Fatalf("AAPL action: %s", entries[0].Action)
	}
	if entries[1].Action != "SELL 8 shares (signal)" {
		t.Fatalf("MSFT action: %s", entries[1].Action)
	}
	if !strings.HasPrefix(entries[2].Action, "HOLD") {
		t.Fatalf("NVDA action: %s", entries[2].Action)
	}
}

func TestRun_BuyEndToEnd(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Acct.Cash = 10000
	mc.Prices["AAPL"] = 50

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.72)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 1 {
		t.Fatalf("want one order, got %+v", mc.Submitted)
	}
	o := mc.Submitted[0]
	if o.Side != broker.SideBuy || o.Qty != 20 || o.Symbol != "AAPL" {
		t.Fatalf("want BUY 20 AAPL ($1000 at $50), got %+v", o)
	}
	if o.ClientOrderID == "" {
		t.Fatalf("buy order must carry a client order ID")
	}
	e := entries[0]
	if e.Confidence != 0.72 || e.Signal != "BUY" {
		t.Fatalf("log entry: %+v", e)
	}
	if !strings.HasPrefix(e.Action, "BUY 20 shares @ ~$50.00") {
		t.Fatalf("action: %s", e.Action)
	}
}

func TestRun_DuplicateOrderPrevented(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Prices["AAPL"] = 50
	mc.OpenOrders = []broker.Order{{ID: "o1", Symbol: "AAPL", Side: broker.SideBuy, Qty: 5, Status: "open"}}

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 0 {
		t.Fatalf("no new order expected, got %+v", mc.Submitted)
	}
	if len(mc.Canceled) != 0 {
		t.Fatalf("a live BUY order with a BUY signal is not stale")
	}
	if entries[0].Action != "SKIP (order already pending)" {
		t.Fatalf("action: %s", entries[0].Action)
	}
}

func TestRun_StaleOrderCleanupPrecedesDecisions(t *testing.T) {
	mc := broker.NewMockClient()
	mc.OpenOrders = []broker.Order{
		{ID: "stale-1", Symbol: "MSFT", Side: broker.SideBuy, Qty: 5, Status: "open"},
		{ID: "sell-1", Symbol: "GOOG", Side: broker.SideSell, Qty: 2, Status: "open"},
	}

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"MSFT"}, map[string]signal.Result{"MSFT": holdSignal("MSFT")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Canceled) != 1 || mc.Canceled[0] != "stale-1" {
		t.Fatalf("stale BUY should be canceled, sell orders untouched: %v", mc.Canceled)
	}
	if entries[0].Action != "SKIP (no position, no buy signal)" {
		t.Fatalf("action: %s", entries[0].Action)
	}
}

func TestRun_InsufficientCashSkips(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Acct.Cash = 100 // tier allocation $10 cannot buy a $50 share
	mc.Prices["AAPL"] = 50

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 0 {
		t.Fatalf("no order expected, got %+v", mc.Submitted)
	}
	if !strings.Contains(entries[0].Action, "not enough cash") {
		t.Fatalf("action: %s", entries[0].Action)
	}
}

func TestRun_PriceFailureNeverBuys(t *testing.T) {
	mc := broker.NewMockClient()
	mc.PriceErrs["AAPL"] = fmt.Errorf("quote feed down")

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 0 {
		t.Fatalf("pricing failure must not place an order: %+v", mc.Submitted)
	}
	if entries[0].Action != "SKIP (no price available, cannot size)" {
		t.Fatalf("action: %s", entries[0].Action)
	}
}

func TestRun_SubmitFailureIsLoggedNotSilent(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Prices["AAPL"] = 50
	mc.SubmitErrs["AAPL"] = fmt.Errorf("rejected")
	mc.Positions = []broker.Position{{Symbol: "MSFT", Qty: 4, UnrealizedPLPct: -0.05}}
	mc.SubmitErrs["MSFT"] = fmt.Errorf("rejected")

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"MSFT", "AAPL"},
		map[string]signal.Result{"MSFT": holdSignal("MSFT"), "AAPL": buySignal("AAPL", 0.80)})
	if err != nil {
		t.Fatalf("submission failures must not abort the cycle: %v", err)
	}
	if !strings.HasPrefix(entries[0].Action, "SELL FAILED") {
		t.Fatalf("MSFT action: %s", entries[0].Action)
	}
	if !strings.HasPrefix(entries[1].Action, "BUY FAILED") {
		t.Fatalf("AAPL action: %s", entries[1].Action)
	}
}

func TestRun_CashRefetchedBetweenBuys(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Acct.Cash = 10000
	mc.Prices["AAPL"] = 50
	mc.Prices["MSFT"] = 70

	entries, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL", "MSFT"},
		map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80), "MSFT": buySignal("MSFT", 0.80)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mc.Submitted) != 2 {
		t.Fatalf("want two buys, got %+v", mc.Submitted)
	}
	// first buy: 10% of 10000 = $1000 -> 20 shares; cash drops to 9000
	// second buy: 10% of 9000 = $900 -> 12 shares at $70
	if mc.Submitted[0].Qty != 20 || mc.Submitted[1].Qty != 12 {
		t.Fatalf("sizing ignored the cash re-fetch: %+v", mc.Submitted)
	}
	if len(entries) != 2 {
		t.Fatalf("one entry per instrument, got %d", len(entries))
	}
}

func TestRun_AccountFetchFailureIsFatal(t *testing.T) {
	mc := broker.NewMockClient()
	mc.AccountErr = fmt.Errorf("broker unavailable")

	_, err := newExecutor(mc).Run(context.Background(),
		[]string{"AAPL"}, map[string]signal.Result{"AAPL": buySignal("AAPL", 0.80)})
	if err == nil {
		t.Fatalf("account snapshot failure must abort the cycle")
	}
	if len(mc.Submitted) != 0 {
		t.Fatalf("no orders may be placed without account state")
	}
}

func TestRun_EveryInstrumentGetsOneEntry(t *testing.T) {
	mc := broker.NewMockClient()
	mc.Prices["AAPL"] = 50
	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}
	signals := map[string]signal.Result{
		"AAPL": buySignal("AAPL", 0.72),
		"MSFT": holdSignal("MSFT"),
		// GOOGL, AMZN, NVDA intentionally missing from the signal map
	}

	entries, err := newExecutor(mc).Run(context.Background(), symbols, signals)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(entries) != len(symbols) {
		t.Fatalf("want %d entries, got %d", len(symbols), len(entries))
	}
	for i, e := range entries {
		if e.Symbol != symbols[i] {
			t.Fatalf("entry %d: want %s, got %s", i, symbols[i], e.Symbol)
		}
		if e.Action == "" {
			t.Fatalf("entry for %s has no action", e.Symbol)
		}
	}
}
