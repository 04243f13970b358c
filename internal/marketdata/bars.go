package marketdata

import (
	"context"
	"fmt"
	"time"
)

// Bar is one trading session of OHLCV for a single instrument.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Provider returns daily bars ordered oldest to newest.
type Provider interface {
	GetBars(ctx context.Context, symbol string, lookbackDays int) ([]Bar, error)
}

// ValidateBars rejects histories the feature engine cannot trust.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d has non-positive price", i)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d has high < low", i)
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bars out of order at index %d", i)
		}
	}
	return nil
}
