package broker

import "context"

// Side is an order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Account is the brokerage account snapshot a cycle runs against.
type Account struct {
	Cash           float64
	PortfolioValue float64
	Status         string
}

// Position is a read-only snapshot of one open position.
type Position struct {
	Symbol          string
	Qty             int
	AvgEntryPrice   float64
	CurrentPrice    float64
	UnrealizedPLPct float64 // fraction, e.g. -0.02 for a 2% loss
}

// Order is a read-only snapshot of an order at the broker.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Qty    int
	Status string
}

// OrderRequest is a market order submission. All orders this system places are
// market, good-till-canceled, whole-share.
type OrderRequest struct {
	Symbol        string
	Qty           int
	Side          Side
	ClientOrderID string
}

// Client is the synchronous brokerage boundary. Every call blocks; callers
// decide per spec whether a failure degrades one instrument or aborts the cycle.
type Client interface {
	GetAccount(ctx context.Context) (Account, error)
	ListPositions(ctx context.Context) ([]Position, error)
	ListOpenOrders(ctx context.Context) ([]Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	SubmitOrder(ctx context.Context, req OrderRequest) (Order, error)
	GetLatestTradePrice(ctx context.Context, symbol string) (float64, error)
}
