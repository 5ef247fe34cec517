package market

import (
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/pkg/logger"
)

// Calendar resolves whether instruments' markets are open from the broker's
// exchange metadata. Built once at startup; schedules cover weeks of events.
type Calendar struct {
	schedules   map[int]models.WorkingSchedule
	instruments map[string]models.TradableInstrument
}

func NewCalendar(exchanges []models.Exchange, instruments []models.TradableInstrument) *Calendar {
	c := &Calendar{
		schedules:   make(map[int]models.WorkingSchedule),
		instruments: make(map[string]models.TradableInstrument),
	}
	for _, e := range exchanges {
		for _, ws := range e.WorkingSchedules {
			c.schedules[ws.ID] = ws
		}
	}
	for _, i := range instruments {
		c.instruments[i.Ticker] = i
	}
	return c
}

// AllOpen reports whether every position's market is currently open: the most
// recent schedule event strictly before now must be an OPEN. Missing metadata
// means "not tradeable" rather than trading on stale data.
func (c *Calendar) AllOpen(now time.Time, positions []models.Position) bool {
	for _, p := range positions {
		if !c.isOpen(now, p.Ticker) {
			return false
		}
	}
	return true
}

func (c *Calendar) isOpen(now time.Time, ticker string) bool {
	inst, ok := c.instruments[ticker]
	if !ok {
		logger.Warn("no instrument metadata for %s, treating as closed", ticker)
		return false
	}
	ws, ok := c.schedules[inst.WorkingScheduleID]
	if !ok {
		logger.Warn("no working schedule %d for %s, treating as closed", inst.WorkingScheduleID, ticker)
		return false
	}

	var last *models.TimeEvent
	for i := range ws.TimeEvents {
		ev := &ws.TimeEvents[i]
		if !ev.Date.Before(now) {
			continue
		}
		if last == nil || ev.Date.After(last.Date) {
			last = ev
		}
	}
	if last == nil {
		return false
	}
	return last.Type == models.TimeEventOpen
}
