package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rvenkat/swing-trader/internal/config"
)

// AlpacaClient talks to the Alpaca trading API (and its data API for latest
// trade prices) over REST.
type AlpacaClient struct {
	baseURL     string
	dataBaseURL string
	apiKey      string
	secretKey   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
}

func NewAlpacaClient(cfg config.Broker, data config.MarketData) (*AlpacaClient, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("broker API credentials are required")
	}
	return &AlpacaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		dataBaseURL: strings.TrimRight(data.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		secretKey:   cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
		maxRetries:  cfg.MaxRetries,
		backoffBase: time.Duration(cfg.BackoffBaseMs) * time.Millisecond,
	}, nil
}

// Alpaca encodes monetary and quantity fields as JSON strings.
type accountJSON struct {
	Status         string `json:"status"`
	Cash           string `json:"cash"`
	PortfolioValue string `json:"portfolio_value"`
}

type positionJSON struct {
	Symbol          string `json:"symbol"`
	Qty             string `json:"qty"`
	AvgEntryPrice   string `json:"avg_entry_price"`
	CurrentPrice    string `json:"current_price"`
	UnrealizedPLPct string `json:"unrealized_plpc"`
}

type orderJSON struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Qty    string `json:"qty"`
	Status string `json:"status"`
}

type latestTradeJSON struct {
	Trade struct {
		Price float64 `json:"p"`
	} `json:"trade"`
}

func (a *AlpacaClient) GetAccount(ctx context.Context) (Account, error) {
	var raw accountJSON
	if err := a.getJSON(ctx, a.baseURL+"/v2/account", &raw); err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	cash, err := strconv.ParseFloat(raw.Cash, 64)
	if err != nil {
		return Account{}, fmt.Errorf("parse account cash %q: %w", raw.Cash, err)
	}
	pv, err := strconv.ParseFloat(raw.PortfolioValue, 64)
	if err != nil {
		return Account{}, fmt.Errorf("parse portfolio value %q: %w", raw.PortfolioValue, err)
	}
	return Account{Cash: cash, PortfolioValue: pv, Status: raw.Status}, nil
}

func (a *AlpacaClient) ListPositions(ctx context.Context) ([]Position, error) {
	var raw []positionJSON
	if err := a.getJSON(ctx, a.baseURL+"/v2/positions", &raw); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	out := make([]Position, 0, len(raw))
	for _, p := range raw {
		qty, err := strconv.Atoi(p.Qty)
		if err != nil {
			return nil, fmt.Errorf("parse position qty %q for %s: %w", p.Qty, p.Symbol, err)
		}
		entry, err := strconv.ParseFloat(p.AvgEntryPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("parse entry price for %s: %w", p.Symbol, err)
		}
		current, err := strconv.ParseFloat(p.CurrentPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("parse current price for %s: %w", p.Symbol, err)
		}
		plpc, err := strconv.ParseFloat(p.UnrealizedPLPct, 64)
		if err != nil {
			return nil, fmt.Errorf("parse unrealized P/L for %s: %w", p.Symbol, err)
		}
		out = append(out, Position{
			Symbol:          p.Symbol,
			Qty:             qty,
			AvgEntryPrice:   entry,
			CurrentPrice:    current,
			UnrealizedPLPct: plpc,
		})
	}
	return out, nil
}

func (a *AlpacaClient) ListOpenOrders(ctx context.Context) ([]Order, error) {
	var raw []orderJSON
	if err := a.getJSON(ctx, a.baseURL+"/v2/orders?status=open", &raw); err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	out := make([]Order, 0, len(raw))
	for _, o := range raw {
		qty, _ := strconv.Atoi(o.Qty)
		out = append(out, Order{ID: o.ID, Symbol: o.Symbol, Side: Side(o.Side), Qty: qty, Status: o.Status})
	}
	return out, nil
}

func (a *AlpacaClient) CancelOrder(ctx context.Context, orderID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.baseURL+"/v2/orders/"+orderID, nil)
	if err != nil {
		return err
	}
	resp, err := a.do(ctx, req)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cancel order %s: HTTP %d: %s", orderID, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (a *AlpacaClient) SubmitOrder(ctx context.Context, or OrderRequest) (Order, error) {
	payload := map[string]string{
		"symbol":        or.Symbol,
		"qty":           strconv.Itoa(or.Qty),
		"side":          string(or.Side),
		"type":          "market",
		"time_in_force": "gtc",
	}
	if or.ClientOrderID != "" {
		payload["client_order_id"] = or.ClientOrderID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.do(ctx, req)
	if err != nil {
		return Order{}, fmt.Errorf("submit %s %d %s: %w", or.Side, or.Qty, or.Symbol, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, fmt.Errorf("submit %s %s: read response: %w", or.Side, or.Symbol, err)
	}
	if resp.StatusCode >= 300 {
		return Order{}, fmt.Errorf("submit %s %d %s: HTTP %d: %s",
			or.Side, or.Qty, or.Symbol, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var placed orderJSON
	if err := json.Unmarshal(respBody, &placed); err != nil {
		return Order{}, fmt.Errorf("submit %s %s: parse response: %w", or.Side, or.Symbol, err)
	}
	qty, _ := strconv.Atoi(placed.Qty)
	return Order{ID: placed.ID, Symbol: placed.Symbol, Side: Side(placed.Side), Qty: qty, Status: placed.Status}, nil
}

func (a *AlpacaClient) GetLatestTradePrice(ctx context.Context, symbol string) (float64, error) {
	var raw latestTradeJSON
	url := fmt.Sprintf("%s/v2/stocks/%s/trades/latest", a.dataBaseURL, symbol)
	if err := a.getJSON(ctx, url, &raw); err != nil {
		return 0, fmt.Errorf("latest trade for %s: %w", symbol, err)
	}
	if raw.Trade.Price <= 0 {
		return 0, fmt.Errorf("latest trade for %s: no price", symbol)
	}
	return raw.Trade.Price, nil
}

// getJSON performs a rate-limited GET with retry/backoff on transient failures.
func (a *AlpacaClient) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := a.do(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return json.Unmarshal(body, out)
	}
	return lastErr
}

func (a *AlpacaClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", a.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.secretKey)
	return a.httpClient.Do(req)
}
