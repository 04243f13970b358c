package executor

import "github.com/rvenkat/swing-trader/internal/signal"

// Decision is the per-instrument state machine outcome. The priority order is
// fixed: stop-loss beats take-profit beats signal-exit beats hold; entries are
// only considered with no position held.
type Decision int

const (
	DecideStopLoss Decision = iota
	DecideTakeProfit
	DecideSignalExit
	DecideHoldPosition
	DecideSkipPending
	DecideBuy
	DecideSkipNoSignal
)

func (d Decision) String() string {
	switch d {
	case DecideStopLoss:
		return "stop_loss"
	case DecideTakeProfit:
		return "take_profit"
	case DecideSignalExit:
		return "signal_exit"
	case DecideHoldPosition:
		return "hold_position"
	case DecideSkipPending:
		return "skip_pending"
	case DecideBuy:
		return "buy"
	default:
		return "skip_no_signal"
	}
}

// decide evaluates the decision table for one instrument from a fresh
// brokerage snapshot. Pure; the caller acts on the result.
func decide(hasPosition bool, pnlPct float64, sig signal.Signal, orderPending bool, stopLossPct, takeProfitPct float64) Decision {
	if hasPosition {
		switch {
		case pnlPct <= stopLossPct:
			return DecideStopLoss
		case pnlPct >= takeProfitPct:
			return DecideTakeProfit
		case sig != signal.Buy:
			return DecideSignalExit
		default:
			return DecideHoldPosition
		}
	}
	if sig == signal.Buy {
		if orderPending {
			return DecideSkipPending
		}
		return DecideBuy
	}
	return DecideSkipNoSignal
}
