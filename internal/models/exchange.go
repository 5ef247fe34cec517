package models

import "time"

type TimeEventType string

const (
	TimeEventOpen            TimeEventType = "OPEN"
	TimeEventClose           TimeEventType = "CLOSE"
	TimeEventPreMarketOpen   TimeEventType = "PRE_MARKET_OPEN"
	TimeEventAfterHoursOpen  TimeEventType = "AFTER_HOURS_OPEN"
	TimeEventAfterHoursClose TimeEventType = "AFTER_HOURS_CLOSE"
)

type TimeEvent struct {
	Date time.Time     `json:"date"`
	Type TimeEventType `json:"type"`
}

type WorkingSchedule struct {
	ID         int         `json:"id"`
	TimeEvents []TimeEvent `json:"timeEvents"`
}

type Exchange struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	WorkingSchedules []WorkingSchedule `json:"workingSchedules"`
}

// TradableInstrument is the broker metadata linking a ticker to the working
// schedule of its listing exchange.
type TradableInstrument struct {
	Ticker            string `json:"ticker"`
	Name              string `json:"name"`
	WorkingScheduleID int    `json:"workingScheduleId"`
}
