package auditlog

import "strings"

// Summary aggregates a run history for reporting.
type Summary struct {
	Runs        int
	Buys        int
	Sells       int
	Skips       int
	Failures    int
	PeakValue   float64
	TroughValue float64
	MaxDrawdown float64 // fraction, peak-to-trough over the recorded curve
}

// Summarize tallies actions and walks the portfolio-value curve across all
// recorded runs.
func Summarize(records []RunRecord) Summary {
	s := Summary{Runs: len(records)}
	peak := 0.0
	for _, rec := range records {
		for _, t := range rec.Trades {
			switch {
			// "BUY FAILED"/"SELL FAILED" must not count as fills.
			case strings.Contains(t.Action, "FAILED"):
				s.Failures++
			case strings.HasPrefix(t.Action, "BUY "):
				s.Buys++
			case strings.HasPrefix(t.Action, "SELL "):
				s.Sells++
			case strings.HasPrefix(t.Action, "SKIP"):
				s.Skips++
			}
		}

		v := rec.PortfolioValue
		if v > s.PeakValue {
			s.PeakValue = v
		}
		if s.TroughValue == 0 || v < s.TroughValue {
			s.TroughValue = v
		}
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}
	return s
}
