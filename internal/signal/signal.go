package signal

import (
	"time"

	"rotation_bot/internal/models"

	"github.com/pkg/errors"
)

// ErrZeroReference guards the divergence division. The seed reference at
// process start is zero-valued and must be replaced before any arithmetic.
var ErrZeroReference = errors.New("leveraged reference price is zero")

// Divergence is the relative move of the leveraged tracker since the base
// tracker's price last changed.
func Divergence(levPrice float64, ref models.SignalData) (float64, error) {
	if ref.LevValueAtLastChange == 0 {
		return 0, ErrZeroReference
	}
	return (levPrice - ref.LevValueAtLastChange) / ref.LevValueAtLastChange, nil
}

// Reset builds a fresh reference anchored at the current quotes.
func Reset(basePrice, levPrice, entryPrice float64, now time.Time) models.SignalData {
	return models.SignalData{
		TimeLastBaseChange:    now,
		BaseValueAtLastChange: basePrice,
		LevValueAtLastChange:  levPrice,
		PositionEntryPrice:    entryPrice,
	}
}

// BaseChanged tests whether the base quote moved off the reference. Quotes
// are coarsely quantized, so exact float equality is the correct test.
func BaseChanged(basePrice float64, ref models.SignalData) bool {
	return basePrice != ref.BaseValueAtLastChange
}

// Evaluator decides whether a divergence is actionable. Both inequalities
// are strict: a divergence exactly at the threshold does not fire, and
// neither does one younger than the dwell time.
type Evaluator struct {
	Threshold float64
	Dwell     time.Duration
}

// FiresUp reports an actionable positive divergence (leveraged ran ahead).
func (e Evaluator) FiresUp(div float64, ref models.SignalData, now time.Time) bool {
	return div > e.Threshold && now.Sub(ref.TimeLastBaseChange) > e.Dwell
}

// FiresDown reports an actionable negative divergence (leveraged lagging).
func (e Evaluator) FiresDown(div float64, ref models.SignalData, now time.Time) bool {
	return div < -e.Threshold && now.Sub(ref.TimeLastBaseChange) > e.Dwell
}
