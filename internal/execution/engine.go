package execution

import (
	"context"
	"time"

	"rotation_bot/internal/broker"
	"rotation_bot/internal/journal"
	"rotation_bot/internal/models"
	"rotation_bot/pkg/logger"

	"github.com/pkg/errors"
)

// Direction of the value move a verified order is expected to produce.
type Direction int

const (
	Buy  Direction = 1
	Sell Direction = -1
)

// Engine places orders and confirms their fills. The broker pushes no fill
// events, so confirmation is either polled (limit orders) or inferred from
// the position's market-value delta (market orders, which settle faster than
// the order lookup resolves).
type Engine struct {
	gw    broker.Gateway
	jrnl  journal.Journal
	runID string

	PollInterval time.Duration
	MaxWait      time.Duration
	SettleDelay  time.Duration
	ValueNoise   float64
}

func New(gw broker.Gateway, jrnl journal.Journal, runID string) *Engine {
	return &Engine{
		gw:           gw,
		jrnl:         jrnl,
		runID:        runID,
		PollInterval: 1100 * time.Millisecond,
		MaxWait:      3 * time.Minute,
		SettleDelay:  5 * time.Second,
		ValueNoise:   5.0,
	}
}

// AwaitFillOrCancel blocks until the order disappears from the broker's
// orders resource (inferred filled) or maxWait elapses, at which point the
// order is cancelled and false returned. The inference cannot distinguish a
// fill from an out-of-band cancellation; the broker offers nothing better.
func (e *Engine) AwaitFillOrCancel(ctx context.Context, orderID int64, maxWait time.Duration) (bool, error) {
	deadline := time.Now().Add(maxWait)
	for {
		_, err := e.gw.OrderByID(ctx, orderID)
		if errors.Is(err, broker.ErrOrderNotFound) {
			return true, nil
		}
		if err != nil {
			logger.Error("order %d lookup: %v", orderID, err)
		} else {
			logger.Info("order %d still open", orderID)
		}

		if time.Now().After(deadline) {
			logger.Warn("order %d not filled within %s, cancelling", orderID, maxWait)
			if cerr := e.gw.CancelOrder(ctx, orderID); cerr != nil {
				return false, errors.Wrapf(cerr, "cancel order %d", orderID)
			}
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(e.PollInterval):
		}
	}
}

// PlaceLimit places a limit order and waits for its fill via polling.
func (e *Engine) PlaceLimit(ctx context.Context, ticker string, quantity, limitPrice float64) (bool, error) {
	order, err := e.gw.PlaceLimitOrder(ctx, ticker, quantity, limitPrice)
	if err != nil {
		return false, err
	}
	e.record(order, "limit", "placed")

	filled, err := e.AwaitFillOrCancel(ctx, order.ID, e.MaxWait)
	if err != nil {
		e.record(order, "limit", "unverified")
		return false, err
	}
	if filled {
		e.record(order, "limit", "filled")
	} else {
		e.record(order, "limit", "cancelled")
	}
	return filled, nil
}

// PlaceMarketVerified places a market order and confirms it through the
// position's value: re-read after a fixed settle delay, a move beyond the
// noise threshold in the expected direction counts as a fill.
func (e *Engine) PlaceMarketVerified(ctx context.Context, ticker string, quantity float64, dir Direction) (bool, error) {
	before, err := e.positionValue(ctx, ticker)
	if err != nil {
		return false, err
	}

	order, err := e.gw.PlaceMarketOrder(ctx, ticker, quantity)
	if err != nil {
		return false, err
	}
	e.record(order, "market", "placed")

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(e.SettleDelay):
	}

	after, err := e.positionValue(ctx, ticker)
	if err != nil {
		e.record(order, "market", "unverified")
		return false, err
	}

	ok := e.valueMoved(before, after, dir)
	if ok {
		e.record(order, "market", "filled")
	} else {
		logger.Warn("market order %d on %s not confirmed: value %.2f -> %.2f", order.ID, ticker, before, after)
		e.record(order, "market", "unverified")
	}
	return ok, nil
}

func (e *Engine) valueMoved(before, after float64, dir Direction) bool {
	switch dir {
	case Buy:
		return after > before+e.ValueNoise
	case Sell:
		return after < before-e.ValueNoise
	}
	return false
}

func (e *Engine) positionValue(ctx context.Context, ticker string) (float64, error) {
	positions, err := e.gw.FetchPositions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "fetch positions for verification")
	}
	for _, p := range positions {
		if p.Ticker == ticker {
			return p.Value(), nil
		}
	}
	return 0, nil
}

func (e *Engine) record(order models.Order, style, outcome string) {
	if e.jrnl == nil {
		return
	}
	err := e.jrnl.RecordOrder(journal.OrderRecord{
		RunID:      e.runID,
		OrderID:    order.ID,
		Ticker:     order.Ticker,
		Quantity:   order.Quantity,
		LimitPrice: order.LimitPrice,
		Style:      style,
		Outcome:    outcome,
		PlacedAt:   time.Now(),
	})
	if err != nil {
		logger.Error("journal order %d: %v", order.ID, err)
	}
}
