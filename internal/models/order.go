package models

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusWorking   OrderStatus = "WORKING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order as the broker reports it. Quantity sign encodes direction:
// positive is a buy, negative a sell.
type Order struct {
	ID         int64       `json:"id"`
	Ticker     string      `json:"ticker"`
	Quantity   float64     `json:"quantity"`
	LimitPrice float64     `json:"limitPrice"`
	Status     OrderStatus `json:"status"`
}

func (o Order) IsBuy() bool { return o.Quantity > 0 }
