package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rvenkat/swing-trader/internal/config"
)

// AlpacaProvider fetches daily bars from the Alpaca Data API v2.
type AlpacaProvider struct {
	baseURL     string
	apiKey      string
	secretKey   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewAlpacaProvider(cfg config.MarketData) (*AlpacaProvider, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("market data API credentials are required")
	}
	return &AlpacaProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
	}, nil
}

type barJSON struct {
	T time.Time `json:"t"`
	O float64   `json:"o"`
	H float64   `json:"h"`
	L float64   `json:"l"`
	C float64   `json:"c"`
	V float64   `json:"v"`
}

type barsResponse struct {
	Bars          []barJSON `json:"bars"`
	NextPageToken *string   `json:"next_page_token"`
}

// GetBars returns up to lookbackDays calendar days of daily bars, oldest first.
func (p *AlpacaProvider) GetBars(ctx context.Context, symbol string, lookbackDays int) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if lookbackDays <= 0 {
		lookbackDays = 120
	}

	start := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	q := url.Values{}
	q.Set("timeframe", "1Day")
	q.Set("start", start.Format("2006-01-02"))
	q.Set("adjustment", "split")
	q.Set("limit", "10000")

	var out []Bar
	pageToken := ""
	for {
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		resp, err := p.get(ctx, fmt.Sprintf("%s/v2/stocks/%s/bars?%s", p.baseURL, symbol, q.Encode()))
		if err != nil {
			return nil, err
		}
		for _, b := range resp.Bars {
			out = append(out, Bar{
				Date:   b.T,
				Open:   b.O,
				High:   b.H,
				Low:    b.L,
				Close:  b.C,
				Volume: b.V,
			})
		}
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		pageToken = *resp.NextPageToken
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no bars returned for %s", symbol)
	}
	if err := ValidateBars(out); err != nil {
		return nil, fmt.Errorf("bad bar history for %s: %w", symbol, err)
	}
	return out, nil
}

func (p *AlpacaProvider) get(ctx context.Context, rawURL string) (*barsResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", p.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", p.secretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bars request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bars response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bars request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed barsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse bars response: %w", err)
	}
	return &parsed, nil
}
