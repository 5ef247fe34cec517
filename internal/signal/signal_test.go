package signal

import (
	"testing"
	"time"

	"rotation_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivergence(t *testing.T) {
	ref := models.SignalData{LevValueAtLastChange: 50.00}

	div, err := Divergence(50.21, ref)
	require.NoError(t, err)
	assert.InDelta(t, 0.0042, div, 1e-9)

	div, err = Divergence(49.80, ref)
	require.NoError(t, err)
	assert.InDelta(t, -0.004, div, 1e-9)
}

func TestDivergenceZeroReference(t *testing.T) {
	_, err := Divergence(50.0, models.SignalData{})
	require.ErrorIs(t, err, ErrZeroReference)
}

func TestBaseChanged(t *testing.T) {
	ref := models.SignalData{BaseValueAtLastChange: 100.00}
	assert.False(t, BaseChanged(100.00, ref))
	assert.True(t, BaseChanged(100.01, ref))
}

func TestEvaluatorStrictThreshold(t *testing.T) {
	eval := Evaluator{Threshold: 0.004, Dwell: 2 * time.Minute}
	now := time.Now()
	ref := models.SignalData{TimeLastBaseChange: now.Add(-3 * time.Minute)}

	// Exactly at the threshold does not fire.
	assert.False(t, eval.FiresUp(0.004, ref, now))
	assert.False(t, eval.FiresDown(-0.004, ref, now))

	// One step past it does.
	assert.True(t, eval.FiresUp(0.0042, ref, now))
	assert.True(t, eval.FiresDown(-0.0042, ref, now))
}

func TestEvaluatorDwellGuard(t *testing.T) {
	eval := Evaluator{Threshold: 0.004, Dwell: 2 * time.Minute}
	now := time.Now()

	young := models.SignalData{TimeLastBaseChange: now.Add(-30 * time.Second)}
	assert.False(t, eval.FiresUp(0.01, young, now))
	assert.False(t, eval.FiresDown(-0.01, young, now))

	// Exactly at the dwell boundary still does not fire.
	boundary := models.SignalData{TimeLastBaseChange: now.Add(-2 * time.Minute)}
	assert.False(t, eval.FiresUp(0.01, boundary, now))

	old := models.SignalData{TimeLastBaseChange: now.Add(-2*time.Minute - time.Second)}
	assert.True(t, eval.FiresUp(0.01, old, now))
}

func TestReset(t *testing.T) {
	now := time.Now()
	sig := Reset(100.0, 50.0, 99.5, now)
	assert.Equal(t, 100.0, sig.BaseValueAtLastChange)
	assert.Equal(t, 50.0, sig.LevValueAtLastChange)
	assert.Equal(t, 99.5, sig.PositionEntryPrice)
	assert.Equal(t, now, sig.TimeLastBaseChange)
}
