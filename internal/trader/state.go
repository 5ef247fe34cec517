package trader

import (
	"context"
	"time"

	"rotation_bot/internal/broker"
	"rotation_bot/internal/execution"
	"rotation_bot/internal/models"
	"rotation_bot/internal/modules/config"
	"rotation_bot/internal/notify"
	"rotation_bot/internal/signal"

	"github.com/pkg/errors"
)

const (
	StateInitializing        = "Initializing"
	StateHoldingLeveraged    = "HoldingLeveraged"
	StateHoldingNonLeveraged = "HoldingNonLeveraged"
	StateOrderFailed         = "OrderFailed"
)

// StateCode maps a state name to a stable numeric code for metrics and
// persisted rows. An unknown name is an invariant violation.
func StateCode(name string) (int, error) {
	switch name {
	case StateInitializing:
		return 0, nil
	case StateHoldingLeveraged:
		return 1, nil
	case StateHoldingNonLeveraged:
		return 2, nil
	case StateOrderFailed:
		return 3, nil
	}
	return 0, errors.Errorf("unknown trader state %q", name)
}

// State is one variant of the trading state machine. Process consumes the
// current market snapshot and returns the next state; it never mutates the
// receiver. A non-nil error is fatal: continuing with unknown state risks
// real capital.
type State interface {
	Name() string
	Signal() models.SignalData
	Process(ctx context.Context, base, lev models.Position, now time.Time) (State, error)
}

// Env is the set of collaborators shared by every state. Constructed once
// and passed explicitly; there are no ambient globals in the core.
type Env struct {
	Gateway broker.Gateway
	Exec    *execution.Engine
	Notify  notify.Notifier
	Eval    signal.Evaluator
	Cfg     *config.Config
}

// SeedState returns the machine's entry point with a zero-valued signal
// reference. Initializing unconditionally overwrites it before any
// divergence arithmetic runs.
func SeedState(env *Env, now time.Time) State {
	return &Initializing{env: env, sig: models.SignalData{TimeLastBaseChange: now}}
}

// fetchPair re-reads the two tracked positions from the broker. Both must be
// present: a sliver of each instrument is always retained precisely so the
// broker keeps quoting it.
func (e *Env) fetchPair(ctx context.Context) (base, lev models.Position, err error) {
	positions, err := e.Gateway.FetchPositions(ctx)
	if err != nil {
		return base, lev, err
	}
	var haveBase, haveLev bool
	for _, p := range positions {
		switch p.Ticker {
		case e.Cfg.BaseTicker:
			base, haveBase = p, true
		case e.Cfg.LevTicker:
			lev, haveLev = p, true
		}
	}
	if !haveBase {
		return base, lev, errors.Errorf("position %s missing from portfolio", e.Cfg.BaseTicker)
	}
	if !haveLev {
		return base, lev, errors.Errorf("position %s missing from portfolio", e.Cfg.LevTicker)
	}
	return base, lev, nil
}

// executeBuy runs one buy leg in the configured order style. Quantity is
// positive; lastPrice anchors the limit price when limit orders are in use.
func (e *Env) executeBuy(ctx context.Context, ticker string, quantity, lastPrice float64) (bool, error) {
	if e.Cfg.OrderStyle == "limit" {
		return e.Exec.PlaceLimit(ctx, ticker, quantity, lastPrice*(1+e.Cfg.LimitSlippage))
	}
	return e.Exec.PlaceMarketVerified(ctx, ticker, quantity, execution.Buy)
}

// executeSell runs one sell leg; quantity is positive, the sign is applied
// here.
func (e *Env) executeSell(ctx context.Context, ticker string, quantity, lastPrice float64) (bool, error) {
	if e.Cfg.OrderStyle == "limit" {
		return e.Exec.PlaceLimit(ctx, ticker, -quantity, lastPrice*(1-e.Cfg.LimitSlippage))
	}
	return e.Exec.PlaceMarketVerified(ctx, ticker, -quantity, execution.Sell)
}
