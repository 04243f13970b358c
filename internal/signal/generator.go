package signal

import (
	"context"
	"fmt"

	"github.com/rvenkat/swing-trader/internal/features"
	"github.com/rvenkat/swing-trader/internal/marketdata"
	"github.com/rvenkat/swing-trader/internal/model"
	"github.com/rvenkat/swing-trader/internal/observ"
)

// Result is one instrument's outcome of the signal pass. Degraded results
// carry the neutral confidence and always signal HOLD.
type Result struct {
	Symbol     string
	Signal     Signal
	Confidence float64
	ProbDown   float64
	Degraded   bool
	Reason     string // why the result degraded, empty otherwise
}

// Generator runs the market-data -> feature -> model -> signal pipeline.
type Generator struct {
	Provider     marketdata.Provider
	Scorer       model.Scorer
	Threshold    float64
	LookbackDays int
}

// Generate scores every instrument independently. A failure anywhere in one
// instrument's pipeline degrades that instrument to neutral-HOLD and the pass
// continues; it never aborts the run.
func (g *Generator) Generate(ctx context.Context, symbols []string) map[string]Result {
	out := make(map[string]Result, len(symbols))
	for _, sym := range symbols {
		res := g.generateOne(ctx, sym)
		out[sym] = res
		observ.Log("signal", map[string]any{
			"symbol":     sym,
			"signal":     string(res.Signal),
			"confidence": res.Confidence,
			"prob_down":  res.ProbDown,
			"degraded":   res.Degraded,
		})
	}
	return out
}

func (g *Generator) generateOne(ctx context.Context, symbol string) Result {
	bars, err := g.Provider.GetBars(ctx, symbol, g.LookbackDays)
	if err != nil {
		return g.degraded(symbol, fmt.Sprintf("market data: %v", err))
	}
	row := features.Latest(bars)
	if row == nil {
		return g.degraded(symbol, "insufficient history for a valid feature row")
	}

	score := g.Scorer.Score(symbol, row.Vector())
	res := Result{
		Symbol:     symbol,
		Signal:     FromScore(score.Class, score.Confidence, g.Threshold),
		Confidence: score.Confidence,
		ProbDown:   score.ProbDown,
	}
	if score.State == model.StateDegraded {
		res.Degraded = true
		res.Reason = score.Reason
		res.Signal = Hold
	}
	return res
}

func (g *Generator) degraded(symbol, reason string) Result {
	observ.Warn("signal_degraded", map[string]any{"symbol": symbol, "reason": reason})
	observ.IncCounter("signal_degraded_total", map[string]string{"symbol": symbol})
	neutral := model.Neutral(reason)
	return Result{
		Symbol:     symbol,
		Signal:     Hold,
		Confidence: neutral.Confidence,
		ProbDown:   neutral.ProbDown,
		Degraded:   true,
		Reason:     reason,
	}
}
