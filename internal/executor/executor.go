package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rvenkat/swing-trader/internal/broker"
	"github.com/rvenkat/swing-trader/internal/config"
	"github.com/rvenkat/swing-trader/internal/observ"
	"github.com/rvenkat/swing-trader/internal/signal"
	"github.com/rvenkat/swing-trader/internal/sizing"
)

// TradeLogEntry records one instrument's outcome for one cycle. Every
// instrument gets exactly one entry each cycle, whether or not an order went out.
type TradeLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"ticker"`
	Signal     string    `json:"signal"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
}

// Executor reconciles model signals with live brokerage state into at most one
// order per instrument per cycle. It holds no state across cycles.
type Executor struct {
	Broker        broker.Client
	StopLossPct   float64 // negative fraction, e.g. -0.02
	TakeProfitPct float64 // positive fraction, e.g. 0.05
	Tiers         []config.SizingTier
	Now           func() time.Time // defaults to time.Now
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run executes one cycle over the instrument list. Brokerage snapshot failures
// (orders, positions, account) abort the cycle before any order is placed;
// failures while acting on a single instrument degrade that instrument only.
func (e *Executor) Run(ctx context.Context, symbols []string, signals map[string]signal.Result) ([]TradeLogEntry, error) {
	openOrders, err := e.Broker.ListOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("open orders snapshot: %w", err)
	}

	// Stale-order cleanup runs for every instrument before any decision so
	// abandoned buy intent never blocks a fresh one.
	remaining := e.cancelStaleBuys(ctx, openOrders, signals)

	positions, err := e.Broker.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions snapshot: %w", err)
	}
	account, err := e.Broker.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("account snapshot: %w", err)
	}

	posBySymbol := make(map[string]broker.Position, len(positions))
	for _, p := range positions {
		posBySymbol[p.Symbol] = p
	}
	pending := make(map[string]bool, len(remaining))
	for _, o := range remaining {
		pending[o.Symbol] = true
	}

	observ.Log("cycle_state", map[string]any{
		"cash":            account.Cash,
		"portfolio_value": account.PortfolioValue,
		"positions":       len(positions),
		"pending_orders":  len(remaining),
	})

	entries := make([]TradeLogEntry, 0, len(symbols))
	for _, sym := range symbols {
		sig, ok := signals[sym]
		if !ok {
			sig = signal.Result{Symbol: sym, Signal: signal.Hold, Confidence: 0.5}
		}
		pos, hasPosition := posBySymbol[sym]

		d := decide(hasPosition, pos.UnrealizedPLPct, sig.Signal, pending[sym],
			e.StopLossPct, e.TakeProfitPct)

		action, err := e.act(ctx, d, sym, pos, sig)
		if err != nil {
			// only brokerage state fetches surface here; fatal to the cycle
			return entries, err
		}

		observ.Log("trade_action", map[string]any{
			"symbol":     sym,
			"decision":   d.String(),
			"signal":     string(sig.Signal),
			"confidence": sig.Confidence,
			"action":     action,
		})
		observ.IncCounter("executor_decisions_total", map[string]string{"decision": d.String()})

		entries = append(entries, TradeLogEntry{
			Timestamp:  e.now(),
			Symbol:     sym,
			Signal:     string(sig.Signal),
			Action:     action,
			Confidence: sig.Confidence,
		})
	}
	return entries, nil
}

// cancelStaleBuys cancels every open BUY order whose instrument no longer
// signals BUY and returns the orders still standing. Cancel failures are
// logged and the order is conservatively kept in the pending set.
func (e *Executor) cancelStaleBuys(ctx context.Context, orders []broker.Order, signals map[string]signal.Result) []broker.Order {
	remaining := make([]broker.Order, 0, len(orders))
	for _, o := range orders {
		if o.Side == broker.SideBuy && signals[o.Symbol].Signal != signal.Buy {
			if err := e.Broker.CancelOrder(ctx, o.ID); err != nil {
				observ.Error("cancel_stale_order_failed", err, map[string]any{"symbol": o.Symbol, "order_id": o.ID})
				remaining = append(remaining, o)
				continue
			}
			observ.Log("canceled_stale_order", map[string]any{"symbol": o.Symbol, "order_id": o.ID})
			observ.IncCounter("stale_orders_canceled_total", map[string]string{"symbol": o.Symbol})
			continue
		}
		remaining = append(remaining, o)
	}
	return remaining
}

// act carries out one decision and renders its textual outcome. Only a
// brokerage account re-fetch failure is returned as an error (fatal to the
// cycle); order submission failures become explicit failure actions.
func (e *Executor) act(ctx context.Context, d Decision, sym string, pos broker.Position, sig signal.Result) (string, error) {
	switch d {
	case DecideStopLoss:
		return e.sellAll(ctx, sym, pos, fmt.Sprintf("stop-loss hit: %.2f%%", pos.UnrealizedPLPct*100)), nil

	case DecideTakeProfit:
		return e.sellAll(ctx, sym, pos, fmt.Sprintf("take-profit: %.2f%%", pos.UnrealizedPLPct*100)), nil

	case DecideSignalExit:
		return e.sellAll(ctx, sym, pos, "signal"), nil

	case DecideHoldPosition:
		return fmt.Sprintf("HOLD (keeping %d shares, P/L: %.2f%%)", pos.Qty, pos.UnrealizedPLPct*100), nil

	case DecideSkipPending:
		return "SKIP (order already pending)", nil

	case DecideBuy:
		return e.buy(ctx, sym, sig)

	default:
		return "SKIP (no position, no buy signal)", nil
	}
}

func (e *Executor) sellAll(ctx context.Context, sym string, pos broker.Position, reason string) string {
	_, err := e.Broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:        sym,
		Qty:           pos.Qty,
		Side:          broker.SideSell,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		observ.Error("sell_order_failed", err, map[string]any{"symbol": sym, "reason": reason})
		observ.IncCounter("order_failures_total", map[string]string{"symbol": sym, "side": "sell"})
		return fmt.Sprintf("SELL FAILED (%s): %v", reason, err)
	}
	return fmt.Sprintf("SELL %d shares (%s)", pos.Qty, reason)
}

func (e *Executor) buy(ctx context.Context, sym string, sig signal.Result) (string, error) {
	// Cash changes as earlier orders in this cycle land, so size against a
	// fresh account snapshot.
	account, err := e.Broker.GetAccount(ctx)
	if err != nil {
		return "", fmt.Errorf("account re-fetch before buy of %s: %w", sym, err)
	}
	dollars := sizing.Dollars(sig.Confidence, account.Cash, e.Tiers)
	if dollars <= 0 {
		return "SKIP (confidence below sizing tiers)", nil
	}

	price, err := e.Broker.GetLatestTradePrice(ctx, sym)
	if err != nil {
		observ.Warn("price_unavailable", map[string]any{"symbol": sym, "reason": err.Error()})
		price = 0
	}
	qty := sizing.Shares(dollars, price)
	if !qty.Actionable() {
		if qty.Price == 0 {
			return "SKIP (no price available, cannot size)", nil
		}
		return fmt.Sprintf("SKIP (not enough cash for 1 share, need ~$%.2f)", qty.Price), nil
	}

	_, err = e.Broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:        sym,
		Qty:           qty.Shares,
		Side:          broker.SideBuy,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		observ.Error("buy_order_failed", err, map[string]any{"symbol": sym})
		observ.IncCounter("order_failures_total", map[string]string{"symbol": sym, "side": "buy"})
		return fmt.Sprintf("BUY FAILED (%d shares @ ~$%.2f): %v", qty.Shares, qty.Price, err), nil
	}
	return fmt.Sprintf("BUY %d shares @ ~$%.2f (~$%.0f, %.0f%% confidence)",
		qty.Shares, qty.Price, qty.Dollars, sig.Confidence*100), nil
}
