package trader

import (
	"context"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/internal/signal"
	"rotation_bot/pkg/logger"
)

// HoldingNonLeveraged is the temporary hedge position. Three triggers rotate
// back into leveraged, checked in priority order: take-profit (base above
// entry), stop-loss (base below entry minus the stop threshold), and
// negative divergence past the dwell time.
type HoldingNonLeveraged struct {
	env *Env
	sig models.SignalData
}

func NewHoldingNonLeveraged(env *Env, sig models.SignalData) *HoldingNonLeveraged {
	return &HoldingNonLeveraged{env: env, sig: sig}
}

func (s *HoldingNonLeveraged) Name() string              { return StateHoldingNonLeveraged }
func (s *HoldingNonLeveraged) Signal() models.SignalData { return s.sig }

func (s *HoldingNonLeveraged) Process(ctx context.Context, base, lev models.Position, now time.Time) (State, error) {
	e := s.env
	entry := s.sig.PositionEntryPrice
	stopLoss := entry * (1 - e.Cfg.StopLossThreshold)

	if base.CurrentPrice > entry {
		e.Notify.Sendf("Base price increased (%.2f > %.2f). Taking profit, swapping to leveraged.",
			base.CurrentPrice, entry)
		return s.swapToLeveraged(ctx, now)
	}

	if base.CurrentPrice < stopLoss {
		e.Notify.Sendf("Stop-loss triggered! Price %.2f < %.2f. Swapping to leveraged.",
			base.CurrentPrice, stopLoss)
		return s.swapToLeveraged(ctx, now)
	}

	if signal.BaseChanged(base.CurrentPrice, s.sig) {
		logger.Info("base price changed %f -> %f, resetting reference",
			s.sig.BaseValueAtLastChange, base.CurrentPrice)
		// Entry price survives the reset: P&L is tracked against the
		// original purchase, not the latest quote.
		return &HoldingNonLeveraged{
			env: e,
			sig: signal.Reset(base.CurrentPrice, lev.CurrentPrice, entry, now),
		}, nil
	}

	div, err := signal.Divergence(lev.CurrentPrice, s.sig)
	if err != nil {
		return nil, err
	}
	logger.Info("lev divergence %f (threshold -%f, ref age %s)",
		div, e.Eval.Threshold, now.Sub(s.sig.TimeLastBaseChange))

	if !e.Eval.FiresDown(div, s.sig, now) {
		return s, nil
	}

	e.Notify.Sendf("Leveraged underperforming (%.4f). Swapping to leveraged to capture recovery.", div)
	return s.swapToLeveraged(ctx, now)
}

func (s *HoldingNonLeveraged) swapToLeveraged(ctx context.Context, now time.Time) (State, error) {
	e := s.env
	sig, outcome := e.swap(ctx, e.Cfg.BaseTicker, e.Cfg.LevTicker, e.Cfg.BaseResidual, now)
	switch outcome {
	case swapDone:
		return &HoldingLeveraged{env: e, sig: sig}, nil
	case swapFailedBuy:
		e.Notify.Send("Swap buy leg failed after sell, resynchronizing")
		return &OrderFailed{env: e, sig: s.sig}, nil
	default:
		e.Notify.Send("Swap sell leg failed, staying in HoldingNonLeveraged")
		return s, nil
	}
}
