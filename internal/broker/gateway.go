package broker

import (
	"context"
	"rotation_bot/internal/models"

	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned by OrderByID when the broker no longer lists
// the order. The broker removes filled orders from the orders resource, so
// the execution engine treats this as "probably filled".
var ErrOrderNotFound = errors.New("order not found")

// Gateway is the broker boundary the trading core talks to. Order quantity
// sign encodes direction: positive buys, negative sells.
type Gateway interface {
	FetchPositions(ctx context.Context) ([]models.Position, error)
	FetchAccountSummary(ctx context.Context) (models.AccountSummary, error)
	FetchInstruments(ctx context.Context) ([]models.TradableInstrument, error)
	FetchExchanges(ctx context.Context) ([]models.Exchange, error)

	PlaceMarketOrder(ctx context.Context, ticker string, quantity float64) (models.Order, error)
	PlaceLimitOrder(ctx context.Context, ticker string, quantity, limitPrice float64) (models.Order, error)
	CancelOrder(ctx context.Context, id int64) error
	CancelAllOpenOrders(ctx context.Context) error
	FetchOpenOrders(ctx context.Context) ([]models.Order, error)
	OrderByID(ctx context.Context, id int64) (models.Order, error)
}
