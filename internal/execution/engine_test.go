package execution

import (
	"context"
	"os"
	"testing"
	"time"

	"rotation_bot/internal/broker"
	"rotation_bot/internal/journal"
	"rotation_bot/internal/models"
	"rotation_bot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeGateway scripts broker behaviour for engine tests. Positions are
// served from a queue; the last snapshot repeats once the queue drains.
type fakeGateway struct {
	snapshots [][]models.Position
	snapIdx   int

	fillAfterLookups int // OrderByID reports not-found after this many lookups
	lookups          int

	placed    []models.Order
	cancelled []int64
	nextID    int64
}

func (f *fakeGateway) FetchPositions(context.Context) ([]models.Position, error) {
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	snap := f.snapshots[f.snapIdx]
	if f.snapIdx < len(f.snapshots)-1 {
		f.snapIdx++
	}
	return snap, nil
}

func (f *fakeGateway) FetchAccountSummary(context.Context) (models.AccountSummary, error) {
	return models.AccountSummary{}, nil
}

func (f *fakeGateway) FetchInstruments(context.Context) ([]models.TradableInstrument, error) {
	return nil, nil
}

func (f *fakeGateway) FetchExchanges(context.Context) ([]models.Exchange, error) {
	return nil, nil
}

func (f *fakeGateway) PlaceMarketOrder(_ context.Context, ticker string, quantity float64) (models.Order, error) {
	f.nextID++
	o := models.Order{ID: f.nextID, Ticker: ticker, Quantity: quantity, Status: models.OrderStatusNew}
	f.placed = append(f.placed, o)
	return o, nil
}

func (f *fakeGateway) PlaceLimitOrder(_ context.Context, ticker string, quantity, limitPrice float64) (models.Order, error) {
	f.nextID++
	o := models.Order{ID: f.nextID, Ticker: ticker, Quantity: quantity, LimitPrice: limitPrice, Status: models.OrderStatusWorking}
	f.placed = append(f.placed, o)
	return o, nil
}

func (f *fakeGateway) CancelOrder(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeGateway) CancelAllOpenOrders(context.Context) error { return nil }

func (f *fakeGateway) FetchOpenOrders(context.Context) ([]models.Order, error) { return nil, nil }

func (f *fakeGateway) OrderByID(_ context.Context, id int64) (models.Order, error) {
	f.lookups++
	if f.fillAfterLookups >= 0 && f.lookups > f.fillAfterLookups {
		return models.Order{}, broker.ErrOrderNotFound
	}
	return models.Order{ID: id, Status: models.OrderStatusWorking}, nil
}

func newTestEngine(gw *fakeGateway) *Engine {
	e := New(gw, journal.Nop{}, "test-run")
	e.PollInterval = time.Millisecond
	e.SettleDelay = time.Millisecond
	e.ValueNoise = 5.0
	return e
}

func TestAwaitFillInferredFromNotFound(t *testing.T) {
	gw := &fakeGateway{fillAfterLookups: 2}
	e := newTestEngine(gw)

	filled, err := e.AwaitFillOrCancel(context.Background(), 1, time.Second)
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Empty(t, gw.cancelled)
}

func TestAwaitFillTimesOutAndCancels(t *testing.T) {
	gw := &fakeGateway{fillAfterLookups: -1} // order never leaves the book
	e := newTestEngine(gw)

	filled, err := e.AwaitFillOrCancel(context.Background(), 42, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, filled)
	assert.Equal(t, []int64{42}, gw.cancelled)
	assert.Greater(t, gw.lookups, 1)
}

func TestPlaceMarketVerifiedBuy(t *testing.T) {
	gw := &fakeGateway{
		fillAfterLookups: -1,
		snapshots: [][]models.Position{
			{{Ticker: "US5Ld_EQ", Quantity: 0.01, CurrentPrice: 50.0}},
			{{Ticker: "US5Ld_EQ", Quantity: 9.0, CurrentPrice: 50.0}},
		},
	}
	e := newTestEngine(gw)

	ok, err := e.PlaceMarketVerified(context.Background(), "US5Ld_EQ", 8.99, Buy)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, gw.placed, 1)
	assert.Equal(t, 8.99, gw.placed[0].Quantity)
}

func TestPlaceMarketVerifiedRejectsNoiseMove(t *testing.T) {
	// Value moved, but within the noise band: no fill confirmation.
	gw := &fakeGateway{
		fillAfterLookups: -1,
		snapshots: [][]models.Position{
			{{Ticker: "US5Ld_EQ", Quantity: 1.0, CurrentPrice: 50.0}},
			{{Ticker: "US5Ld_EQ", Quantity: 1.05, CurrentPrice: 50.0}},
		},
	}
	e := newTestEngine(gw)

	ok, err := e.PlaceMarketVerified(context.Background(), "US5Ld_EQ", 1.0, Buy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlaceMarketVerifiedSellDirection(t *testing.T) {
	// A value increase cannot confirm a sell.
	gw := &fakeGateway{
		fillAfterLookups: -1,
		snapshots: [][]models.Position{
			{{Ticker: "VUAAm_EQ", Quantity: 5.0, CurrentPrice: 100.0}},
			{{Ticker: "VUAAm_EQ", Quantity: 6.0, CurrentPrice: 100.0}},
		},
	}
	e := newTestEngine(gw)

	ok, err := e.PlaceMarketVerified(context.Background(), "VUAAm_EQ", -4.9, Sell)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlaceLimitFillsViaPolling(t *testing.T) {
	gw := &fakeGateway{fillAfterLookups: 3}
	e := newTestEngine(gw)
	e.MaxWait = time.Second

	filled, err := e.PlaceLimit(context.Background(), "VUAAm_EQ", 2.0, 100.01)
	require.NoError(t, err)
	assert.True(t, filled)
	require.Len(t, gw.placed, 1)
	assert.Equal(t, 100.01, gw.placed[0].LimitPrice)
}
