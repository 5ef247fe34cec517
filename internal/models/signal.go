package models

import "time"

// SignalData is the divergence reference owned by the active trader state.
// It is replaced wholesale on every transition, never mutated in place.
type SignalData struct {
	TimeLastBaseChange    time.Time `json:"time_last_base_change"`
	BaseValueAtLastChange float64   `json:"base_value_at_last_change"`
	LevValueAtLastChange  float64   `json:"lev_value_at_last_change"`
	PositionEntryPrice    float64   `json:"position_entry_price"`
}
