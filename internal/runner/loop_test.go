package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextScheduleAbsorbsProcessingTime(t *testing.T) {
	prev := time.Date(2026, 8, 14, 15, 30, 0, 0, time.UTC)
	interval := 20 * time.Second

	// The cycle took 7s; the wait shrinks so the cadence stays on the grid.
	now := prev.Add(7 * time.Second)
	next, wait := nextSchedule(prev, now, interval)
	assert.Equal(t, prev.Add(interval), next)
	assert.Equal(t, 13*time.Second, wait)

	// Chain a second cycle from the returned timestamp.
	now = next.Add(3 * time.Second)
	next2, wait2 := nextSchedule(next, now, interval)
	assert.Equal(t, prev.Add(2*interval), next2)
	assert.Equal(t, 17*time.Second, wait2)
}

func TestNextScheduleOverrunResets(t *testing.T) {
	prev := time.Date(2026, 8, 14, 15, 30, 0, 0, time.UTC)
	interval := 20 * time.Second

	// A long fill wait blew past the slot: restart from now, skip the backlog.
	now := prev.Add(3 * time.Minute)
	next, wait := nextSchedule(prev, now, interval)
	assert.Equal(t, now, next)
	assert.Equal(t, time.Duration(0), wait)
}

func TestNextScheduleExactBoundary(t *testing.T) {
	prev := time.Date(2026, 8, 14, 15, 30, 0, 0, time.UTC)
	interval := 20 * time.Second

	now := prev.Add(interval)
	next, wait := nextSchedule(prev, now, interval)
	assert.Equal(t, prev.Add(interval), next)
	assert.Equal(t, time.Duration(0), wait)
}
