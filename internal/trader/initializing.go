package trader

import (
	"context"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/internal/signal"
	"rotation_bot/pkg/logger"
)

// Initializing resynchronizes in-memory state against the broker's actual
// holdings. It cancels open orders, infers the current holding from market
// values (largest value wins), and resumes into the matching state without
// trading. Only when idle cash dominates does it buy into the default
// leveraged side.
type Initializing struct {
	env *Env
	sig models.SignalData
}

func NewInitializing(env *Env, sig models.SignalData) *Initializing {
	return &Initializing{env: env, sig: sig}
}

func (s *Initializing) Name() string              { return StateInitializing }
func (s *Initializing) Signal() models.SignalData { return s.sig }

func (s *Initializing) Process(ctx context.Context, base, lev models.Position, now time.Time) (State, error) {
	e := s.env
	logger.Info("initializing: cancelling open orders")
	if err := e.Gateway.CancelAllOpenOrders(ctx); err != nil {
		logger.Error("initializing: cancel open orders: %v", err)
		return s, nil
	}
	time.Sleep(e.Cfg.CancelSettle)

	base, lev, err := e.fetchPair(ctx)
	if err != nil {
		logger.Error("initializing: fetch positions: %v", err)
		return s, nil
	}
	summary, err := e.Gateway.FetchAccountSummary(ctx)
	if err != nil {
		logger.Error("initializing: account summary: %v", err)
		return s, nil
	}

	baseValue := base.Value()
	levValue := lev.Value()
	cash := summary.Cash.AvailableToTrade
	logger.Info("initializing: base=%f lev=%f cash=%f", baseValue, levValue, cash)

	// Already holding the non-leveraged side: resume without trading.
	if baseValue > levValue && baseValue > cash {
		e.Notify.Sendf("Initialized: already holding non-leveraged (value=%.2f)", baseValue)
		return &HoldingNonLeveraged{
			env: e,
			sig: signal.Reset(base.CurrentPrice, lev.CurrentPrice, base.CurrentPrice, now),
		}, nil
	}

	// Already holding the leveraged side.
	if levValue > baseValue && levValue > cash {
		e.Notify.Sendf("Initialized: already holding leveraged (value=%.2f)", levValue)
		return &HoldingLeveraged{
			env: e,
			sig: signal.Reset(base.CurrentPrice, lev.CurrentPrice, lev.CurrentPrice, now),
		}, nil
	}

	// Cash dominates: spend it on the default (leveraged) side.
	if cash > e.Cfg.CashFloor {
		quantity := cash / lev.CurrentPrice * e.Cfg.BuyHeadroom
		e.Notify.Sendf("Initialized: buying leveraged with cash=%.2f", cash)
		ok, err := e.executeBuy(ctx, e.Cfg.LevTicker, quantity, lev.CurrentPrice)
		if err != nil {
			logger.Error("initializing: buy leveraged: %v", err)
			e.Notify.Sendf("Init buy error: %v, staying in Initializing", err)
			return s, nil
		}
		if !ok {
			e.Notify.Send("Init buy order not verified, staying in Initializing")
			return s, nil
		}

		base, lev, err = e.fetchPair(ctx)
		if err != nil {
			logger.Error("initializing: refresh after buy: %v", err)
			return s, nil
		}
		e.Notify.Send("Initialized: holding leveraged (bought successfully)")
		return &HoldingLeveraged{
			env: e,
			sig: signal.Reset(base.CurrentPrice, lev.CurrentPrice, lev.CurrentPrice, now),
		}, nil
	}

	// Neither holdings nor cash are decisive.
	logger.Warn("initializing: nothing decisive: base=%f lev=%f cash=%f", baseValue, levValue, cash)
	e.Notify.Send("No significant holdings or cash, staying in Initializing")
	return s, nil
}
