package models

// Position is a per-cycle snapshot of one holding. Quantity is a signed share
// count; nothing here survives beyond the tick that fetched it.
type Position struct {
	Ticker       string  `json:"ticker"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"currentPrice"`
	AveragePrice float64 `json:"averagePrice"`
}

// Value is the market value of the holding at the snapshot price.
func (p Position) Value() float64 {
	return p.Quantity * p.CurrentPrice
}
