package journal

import "time"

// OrderRecord is one placed order and what became of it. Written best-effort;
// the broker keeps the authoritative history.
type OrderRecord struct {
	RunID      string
	OrderID    int64
	Ticker     string
	Quantity   float64
	LimitPrice float64
	Style      string // market | limit
	Outcome    string // placed | filled | cancelled | unverified
	PlacedAt   time.Time
}

type Journal interface {
	RecordOrder(rec OrderRecord) error
	Close() error
}

// Nop is used when no journal path is configured.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error { return nil }
func (Nop) Close() error                  { return nil }
