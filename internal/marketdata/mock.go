package marketdata

import (
	"context"
	"fmt"
	"math"
	"time"
)

// MockProvider serves canned bar histories for deterministic tests.
type MockProvider struct {
	Bars map[string][]Bar
	Errs map[string]error
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Bars: map[string][]Bar{},
		Errs: map[string]error{},
	}
}

func (m *MockProvider) GetBars(_ context.Context, symbol string, _ int) ([]Bar, error) {
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no mock bars for %s", symbol)
	}
	return bars, nil
}

// SyntheticBars builds a smooth n-session history starting at base, useful when
// a test only needs enough rows to clear the rolling windows.
func SyntheticBars(n int, base float64) []Bar {
	bars := make([]Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	for i := range bars {
		// weekdays only, mild sine drift so returns are non-constant
		d := start.AddDate(0, 0, (i/5)*7+i%5)
		c := base * (1 + 0.01*math.Sin(float64(i)/3) + 0.001*float64(i))
		bars[i] = Bar{
			Date:   d,
			Open:   c * 0.998,
			High:   c * 1.006,
			Low:    c * 0.993,
			Close:  c,
			Volume: 1_000_000 + 50_000*float64(i%7),
		}
	}
	return bars
}
