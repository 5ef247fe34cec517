package models

type Cash struct {
	AvailableToTrade float64 `json:"availableToTrade"`
}

type AccountSummary struct {
	Cash Cash `json:"cash"`
}
