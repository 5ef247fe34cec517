package trader

import (
	"context"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/internal/signal"
	"rotation_bot/pkg/logger"
)

// HoldingLeveraged is the default holding. When the leveraged tracker runs
// ahead of the base tracker past the threshold, for longer than the dwell
// time, the outperformance is locked in by rotating into the non-leveraged
// side.
type HoldingLeveraged struct {
	env *Env
	sig models.SignalData
}

func NewHoldingLeveraged(env *Env, sig models.SignalData) *HoldingLeveraged {
	return &HoldingLeveraged{env: env, sig: sig}
}

func (s *HoldingLeveraged) Name() string              { return StateHoldingLeveraged }
func (s *HoldingLeveraged) Signal() models.SignalData { return s.sig }

func (s *HoldingLeveraged) Process(ctx context.Context, base, lev models.Position, now time.Time) (State, error) {
	e := s.env

	if signal.BaseChanged(base.CurrentPrice, s.sig) {
		logger.Info("base price changed %f -> %f, resetting reference",
			s.sig.BaseValueAtLastChange, base.CurrentPrice)
		return &HoldingLeveraged{
			env: e,
			sig: signal.Reset(base.CurrentPrice, lev.CurrentPrice, s.sig.PositionEntryPrice, now),
		}, nil
	}

	div, err := signal.Divergence(lev.CurrentPrice, s.sig)
	if err != nil {
		// A zero reference here means the seed leaked past Initializing.
		return nil, err
	}
	logger.Info("lev divergence %f (threshold %f, ref age %s)",
		div, e.Eval.Threshold, now.Sub(s.sig.TimeLastBaseChange))

	if !e.Eval.FiresUp(div, s.sig, now) {
		return s, nil
	}

	e.Notify.Sendf("Leveraged overperforming (+%.4f). Swapping to non-leveraged.", div)
	sig, outcome := e.swap(ctx, e.Cfg.LevTicker, e.Cfg.BaseTicker, e.Cfg.LevResidual, now)
	switch outcome {
	case swapDone:
		return &HoldingNonLeveraged{env: e, sig: sig}, nil
	case swapFailedBuy:
		e.Notify.Send("Swap buy leg failed after sell, resynchronizing")
		return &OrderFailed{env: e, sig: s.sig}, nil
	default:
		e.Notify.Send("Swap sell leg failed, staying in HoldingLeveraged")
		return s, nil
	}
}
