package broker

import (
	"context"
	"fmt"
)

// MockClient is an in-memory brokerage double for deterministic executor
// tests. Submitted buys reduce available cash so re-fetch ordering is
// observable; canceled orders disappear from the open set.
type MockClient struct {
	Acct       Account
	Positions  []Position
	OpenOrders []Order
	Prices     map[string]float64

	AccountErr error
	PriceErrs  map[string]error
	SubmitErrs map[string]error

	Submitted []OrderRequest
	Canceled  []string

	nextID int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Acct:       Account{Cash: 10000, PortfolioValue: 10000, Status: "ACTIVE"},
		Prices:     map[string]float64{},
		PriceErrs:  map[string]error{},
		SubmitErrs: map[string]error{},
	}
}

func (m *MockClient) GetAccount(context.Context) (Account, error) {
	if m.AccountErr != nil {
		return Account{}, m.AccountErr
	}
	return m.Acct, nil
}

func (m *MockClient) ListPositions(context.Context) ([]Position, error) {
	return append([]Position(nil), m.Positions...), nil
}

func (m *MockClient) ListOpenOrders(context.Context) ([]Order, error) {
	return append([]Order(nil), m.OpenOrders...), nil
}

func (m *MockClient) CancelOrder(_ context.Context, orderID string) error {
	m.Canceled = append(m.Canceled, orderID)
	kept := m.OpenOrders[:0]
	for _, o := range m.OpenOrders {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	m.OpenOrders = kept
	return nil
}

func (m *MockClient) SubmitOrder(_ context.Context, req OrderRequest) (Order, error) {
	if err, ok := m.SubmitErrs[req.Symbol]; ok {
		return Order{}, err
	}
	m.Submitted = append(m.Submitted, req)
	m.nextID++
	order := Order{
		ID:     fmt.Sprintf("order-%d", m.nextID),
		Symbol: req.Symbol,
		Side:   req.Side,
		Qty:    req.Qty,
		Status: "accepted",
	}
	if req.Side == SideBuy {
		if price, ok := m.Prices[req.Symbol]; ok {
			m.Acct.Cash -= float64(req.Qty) * price
		}
		m.OpenOrders = append(m.OpenOrders, order)
	}
	return order, nil
}

func (m *MockClient) GetLatestTradePrice(_ context.Context, symbol string) (float64, error) {
	if err, ok := m.PriceErrs[symbol]; ok {
		return 0, err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no mock price for %s", symbol)
	}
	return price, nil
}
