package signal

import (
	"context"
	"fmt"
	"testing"

	"github.com/rvenkat/swing-trader/internal/marketdata"
	"github.com/rvenkat/swing-trader/internal/model"
)

func TestFromScore_Boundaries(t *testing.T) {
	cases := []struct {
		class      int
		confidence float64
		want       Signal
	}{
		{1, 0.60, Buy},
		{1, 0.5999999, Hold},
		{1, 0.99, Buy},
		{0, 0.99, Hold}, // class gates confidence
		{0, 0.60, Hold},
		{1, 0.0, Hold},
	}
	for _, c := range cases {
		if got := FromScore(c.class, c.confidence, 0.60); got != c.want {
			t.Fatalf("class=%d confidence=%v: want %s, got %s", c.class, c.confidence, c.want, got)
		}
	}
}

func TestGenerate_BuyAndHold(t *testing.T) {
	provider := marketdata.NewMockProvider()
	provider.Bars["AAPL"] = marketdata.SyntheticBars(90, 200)
	provider.Bars["MSFT"] = marketdata.SyntheticBars(90, 400)

	scorer := model.NewMockScorer()
	scorer.SetUp("AAPL", 0.72)
	scorer.SetDown("MSFT", 0.80)

	g := &Generator{Provider: provider, Scorer: scorer, Threshold: 0.60, LookbackDays: 120}
	out := g.Generate(context.Background(), []string{"AAPL", "MSFT"})

	if out["AAPL"].Signal != Buy || out["AAPL"].Confidence != 0.72 {
		t.Fatalf("AAPL: want BUY @0.72, got %+v", out["AAPL"])
	}
	if out["MSFT"].Signal != Hold {
		t.Fatalf("MSFT: want HOLD, got %+v", out["MSFT"])
	}
	if out["AAPL"].Degraded || out["MSFT"].Degraded {
		t.Fatalf("neither instrument should be degraded")
	}
}

func TestGenerate_DegradesWithoutAborting(t *testing.T) {
	provider := marketdata.NewMockProvider()
	provider.Errs["AAPL"] = fmt.Errorf("data feed down")
	provider.Bars["MSFT"] = marketdata.SyntheticBars(20, 400) // too short
	provider.Bars["NVDA"] = marketdata.SyntheticBars(90, 450)

	scorer := model.NewMockScorer()
	scorer.SetUp("NVDA", 0.75)

	g := &Generator{Provider: provider, Scorer: scorer, Threshold: 0.60, LookbackDays: 120}
	out := g.Generate(context.Background(), []string{"AAPL", "MSFT", "NVDA"})

	for _, sym := range []string{"AAPL", "MSFT"} {
		res := out[sym]
		if !res.Degraded || res.Signal != Hold || res.Confidence != 0.5 {
			t.Fatalf("%s: want degraded neutral HOLD, got %+v", sym, res)
		}
		if res.Reason == "" {
			t.Fatalf("%s: degraded result must carry a reason", sym)
		}
	}
	if out["NVDA"].Signal != Buy {
		t.Fatalf("NVDA should still be scored: %+v", out["NVDA"])
	}
}

func TestGenerate_DegradedScorerForcesHold(t *testing.T) {
	provider := marketdata.NewMockProvider()
	provider.Bars["AAPL"] = marketdata.SyntheticBars(90, 200)

	// no model configured: scorer degrades to neutral
	g := &Generator{Provider: provider, Scorer: model.NewMockScorer(), Threshold: 0.60, LookbackDays: 120}
	out := g.Generate(context.Background(), []string{"AAPL"})

	res := out["AAPL"]
	if !res.Degraded || res.Signal != Hold || res.Confidence != 0.5 {
		t.Fatalf("want degraded neutral HOLD, got %+v", res)
	}
}
