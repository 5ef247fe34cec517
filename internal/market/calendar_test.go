package market

import (
	"os"
	"testing"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func calendarWithEvents(events []models.TimeEvent) *Calendar {
	exchanges := []models.Exchange{{
		ID:   1,
		Name: "LSE",
		WorkingSchedules: []models.WorkingSchedule{
			{ID: 7, TimeEvents: events},
		},
	}}
	instruments := []models.TradableInstrument{
		{Ticker: "VUAAm_EQ", WorkingScheduleID: 7},
	}
	return NewCalendar(exchanges, instruments)
}

func TestAllOpen(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	positions := []models.Position{{Ticker: "VUAAm_EQ"}}

	tests := []struct {
		name   string
		events []models.TimeEvent
		want   bool
	}{
		{
			name: "open",
			events: []models.TimeEvent{
				{Date: now.Add(-4 * time.Hour), Type: models.TimeEventOpen},
				{Date: now.Add(4 * time.Hour), Type: models.TimeEventClose},
			},
			want: true,
		},
		{
			name: "closed",
			events: []models.TimeEvent{
				{Date: now.Add(-20 * time.Hour), Type: models.TimeEventOpen},
				{Date: now.Add(-12 * time.Hour), Type: models.TimeEventClose},
				{Date: now.Add(4 * time.Hour), Type: models.TimeEventOpen},
			},
			want: false,
		},
		{
			name: "most recent event wins",
			events: []models.TimeEvent{
				{Date: now.Add(-12 * time.Hour), Type: models.TimeEventClose},
				{Date: now.Add(-4 * time.Hour), Type: models.TimeEventOpen},
			},
			want: true,
		},
		{
			name: "no events before now",
			events: []models.TimeEvent{
				{Date: now.Add(time.Hour), Type: models.TimeEventOpen},
			},
			want: false,
		},
		{
			name:   "empty schedule",
			events: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := calendarWithEvents(tt.events)
			assert.Equal(t, tt.want, cal.AllOpen(now, positions))
		})
	}
}

func TestAllOpenMissingMetadata(t *testing.T) {
	now := time.Now()
	cal := calendarWithEvents([]models.TimeEvent{
		{Date: now.Add(-time.Hour), Type: models.TimeEventOpen},
	})

	// Unknown ticker: biased toward "not tradeable".
	assert.False(t, cal.AllOpen(now, []models.Position{{Ticker: "UNKNOWN_EQ"}}))

	// Instrument pointing at a schedule the broker never returned.
	cal2 := NewCalendar(nil, []models.TradableInstrument{{Ticker: "VUAAm_EQ", WorkingScheduleID: 9}})
	assert.False(t, cal2.AllOpen(now, []models.Position{{Ticker: "VUAAm_EQ"}}))
}
