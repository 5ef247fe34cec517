package trader

import (
	"context"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/internal/signal"
	"rotation_bot/pkg/logger"
)

type swapOutcome int

const (
	// swapDone: both legs verified.
	swapDone swapOutcome = iota
	// swapFailedSell: the sell leg failed or could not be verified; holdings
	// are unchanged, the caller stays in its current state.
	swapFailedSell
	// swapFailedBuy: the sell leg went through but the buy leg did not. The
	// account now sits in cash, so in-memory state no longer matches the
	// broker and the caller must go through OrderFailed.
	swapFailedBuy
)

// swap rotates capital from one instrument into the other: sell (almost) all
// of `from`, then spend the freed cash on `to`. The two legs are explicitly
// non-transactional; the sell leg alone only reduces exposure.
func (e *Env) swap(ctx context.Context, fromTicker, toTicker string, fromResidual float64, now time.Time) (models.SignalData, swapOutcome) {
	time.Sleep(e.Cfg.PreSwapDelay)

	base, lev, err := e.fetchPair(ctx)
	if err != nil {
		logger.Error("swap: refresh positions: %v", err)
		return models.SignalData{}, swapFailedSell
	}
	from := pick(fromTicker, base, lev)

	// Sell leg. Keep a residual so the instrument stays queryable.
	if from.Quantity > fromResidual {
		sellQty := from.Quantity - fromResidual
		logger.Info("swap: selling %f of %s", sellQty, fromTicker)
		ok, err := e.executeSell(ctx, fromTicker, sellQty, from.CurrentPrice)
		if err != nil {
			logger.Error("swap: sell %s: %v", fromTicker, err)
			return models.SignalData{}, swapFailedSell
		}
		if !ok {
			logger.Warn("swap: sell %s not verified", fromTicker)
			return models.SignalData{}, swapFailedSell
		}
		e.Notify.Sendf("Sold %s successfully", fromTicker)
	} else {
		logger.Warn("swap: insufficient %s quantity to sell: %f", fromTicker, from.Quantity)
	}

	// Buy leg with the freed cash.
	summary, err := e.Gateway.FetchAccountSummary(ctx)
	if err != nil {
		logger.Error("swap: account summary: %v", err)
		return models.SignalData{}, swapFailedBuy
	}
	cash := summary.Cash.AvailableToTrade
	if cash < e.Cfg.CashFloor {
		logger.Warn("swap: no usable cash after sell: %f", cash)
		return models.SignalData{}, swapFailedBuy
	}

	base, lev, err = e.fetchPair(ctx)
	if err != nil {
		logger.Error("swap: refresh positions: %v", err)
		return models.SignalData{}, swapFailedBuy
	}
	to := pick(toTicker, base, lev)

	buyQty := cash / to.CurrentPrice * e.Cfg.BuyHeadroom
	logger.Info("swap: buying %f of %s with cash %f", buyQty, toTicker, cash)
	ok, err := e.executeBuy(ctx, toTicker, buyQty, to.CurrentPrice)
	if err != nil {
		logger.Error("swap: buy %s: %v", toTicker, err)
		return models.SignalData{}, swapFailedBuy
	}
	if !ok {
		logger.Warn("swap: buy %s not verified", toTicker)
		return models.SignalData{}, swapFailedBuy
	}
	e.Notify.Sendf("Bought %s successfully. Swap complete.", toTicker)

	// Fresh reference anchored at post-swap quotes; entry is the bought side.
	entry := to.CurrentPrice
	if b2, l2, err := e.fetchPair(ctx); err != nil {
		// Swap itself is done; keep the pre-buy quotes as the reference.
		logger.Error("swap: final refresh: %v", err)
	} else {
		base, lev = b2, l2
		entry = pick(toTicker, base, lev).CurrentPrice
	}
	return signal.Reset(base.CurrentPrice, lev.CurrentPrice, entry, now), swapDone
}

func pick(ticker string, base, lev models.Position) models.Position {
	if base.Ticker == ticker {
		return base
	}
	return lev
}
