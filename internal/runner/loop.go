package runner

import (
	"context"
	"time"

	"rotation_bot/internal/broker"
	"rotation_bot/internal/execution"
	"rotation_bot/internal/journal"
	"rotation_bot/internal/market"
	"rotation_bot/internal/models"
	"rotation_bot/internal/modules/config"
	healthsvc "rotation_bot/internal/modules/health/service"
	"rotation_bot/internal/notify"
	"rotation_bot/internal/signal"
	"rotation_bot/internal/storage"
	"rotation_bot/internal/stream"
	"rotation_bot/internal/trader"
	"rotation_bot/pkg/db"
	"rotation_bot/pkg/logger"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// Loop is the fixed-interval driver of the state machine. One synchronous
// thread of control: broker calls, fill waits and settle delays all block
// right here, and cycles never overlap.
type Loop struct {
	cfg     *config.Config
	gw      broker.Gateway
	env     *trader.Env
	sink    *storage.Sink
	jrnl    journal.Journal
	n       notify.Notifier
	hub     *stream.Hub
	health  *healthsvc.State
	metrics *Metrics
	runID   string

	cal   *market.Calendar
	state trader.State
}

func NewLoop(
	cfg *config.Config,
	tm *db.PgTxManager,
	n notify.Notifier,
	jrnl journal.Journal,
	hub *stream.Hub,
	health *healthsvc.State,
	metrics *Metrics,
) *Loop {
	runID := uuid.NewString()
	gw := broker.NewClient(cfg.Broker.BaseURL, cfg.Broker.APIKey)

	exec := execution.New(gw, jrnl, runID)
	exec.PollInterval = cfg.FillPollInterval
	exec.MaxWait = cfg.FillMaxWait
	exec.SettleDelay = cfg.SettleDelay
	exec.ValueNoise = cfg.ValueNoise

	return &Loop{
		cfg:  cfg,
		gw:   gw,
		jrnl: jrnl,
		env: &trader.Env{
			Gateway: gw,
			Exec:    exec,
			Notify:  n,
			Eval:    signal.Evaluator{Threshold: cfg.LevDiffInvest, Dwell: cfg.DwellTime},
			Cfg:     cfg,
		},
		sink:    storage.NewSink(tm, runID),
		n:       n,
		hub:     hub,
		health:  health,
		metrics: metrics,
		runID:   runID,
	}
}

// Run drives the loop until ctx is cancelled or a fatal error surfaces.
func (l *Loop) Run(ctx context.Context) error {
	l.n.Sendf("Rotation bot starting: run=%s base=%s lev=%s threshold=%.4f dwell=%s",
		l.runID, l.cfg.BaseTicker, l.cfg.LevTicker, l.cfg.LevDiffInvest, l.cfg.DwellTime)

	if err := l.sink.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "ensure snapshot schema")
	}

	if snap, err := l.sink.LastState(ctx); err != nil {
		logger.Warn("no persisted state to resume from: %v", err)
	} else {
		logger.Info("last persisted state: %s (run %s at %s)", snap.StateName, snap.RunID, snap.CreatedAt)
	}

	if err := l.buildCalendar(ctx); err != nil {
		return errors.Wrap(err, "build trading calendar")
	}

	l.state = trader.SeedState(l.env, time.Now())
	l.health.SetReady(true)

	nextRun := time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}

		base, lev, err := l.fetchPair(ctx)
		if err != nil {
			logger.Error("fetch positions: %v", err)
			l.sleep(ctx, l.cfg.TickInterval)
			continue
		}

		now := time.Now()
		if !l.IsTradeable(now, []models.Position{base, lev}) {
			logger.Info("markets not all open, retrying in %s", l.cfg.ClosedMarketRetry)
			l.sleep(ctx, l.cfg.ClosedMarketRetry)
			nextRun = time.Now()
			continue
		}

		if err := l.Tick(ctx, base, lev, now); err != nil {
			l.n.Sendf("FATAL: %v", err)
			return err
		}

		var wait time.Duration
		nextRun, wait = nextSchedule(nextRun, time.Now(), l.cfg.TickInterval)
		if wait == 0 {
			logger.Warn("running behind schedule, resetting timer")
		}
		l.sleep(ctx, wait)
	}
}

// IsTradeable reports whether both instruments' markets are open. The driver
// must check it before ticking.
func (l *Loop) IsTradeable(now time.Time, positions []models.Position) bool {
	return l.cal.AllOpen(now, positions)
}

// Tick runs one cycle of the state machine against a market snapshot. The
// returned error is fatal; every recoverable failure is absorbed below.
func (l *Loop) Tick(ctx context.Context, base, lev models.Position, now time.Time) error {
	span := opentracing.StartSpan("tick")
	defer span.Finish()
	span.SetTag("state", l.state.Name())

	if err := l.sink.WritePositions(ctx, []models.Position{base, lev}); err != nil {
		logger.Error("write positions snapshot: %v", err)
	}

	oldName := l.state.Name()
	next, err := l.state.Process(ctx, base, lev, now)
	if err != nil {
		return err
	}
	if next == nil {
		return errors.New("state machine returned nil state")
	}
	l.state = next

	code, err := trader.StateCode(next.Name())
	if err != nil {
		// An unmodeled variant: stop rather than trade on unknown state.
		return err
	}

	if oldName != next.Name() {
		logger.Info("state changed: %s -> %s", oldName, next.Name())
		l.countTransition(oldName, next.Name())
	}

	div, derr := signal.Divergence(lev.CurrentPrice, next.Signal())
	if derr != nil {
		div = 0
	}

	l.metrics.Ticks.Inc()
	l.metrics.StateCode.Set(float64(code))
	l.metrics.Divergence.Set(div)
	span.SetTag("divergence", div)

	if err := l.sink.WriteState(ctx, next.Name(), next.Signal()); err != nil {
		logger.Error("write state snapshot: %v", err)
	}

	l.hub.Broadcast(stream.TickEvent{
		Time:       now,
		State:      next.Name(),
		BasePrice:  base.CurrentPrice,
		LevPrice:   lev.CurrentPrice,
		Divergence: div,
	})

	l.health.TouchTick(now)
	l.health.SetTraderState(next.Name())
	return nil
}

func (l *Loop) countTransition(from, to string) {
	switch {
	case from == trader.StateHoldingLeveraged && to == trader.StateHoldingNonLeveraged:
		l.metrics.Swaps.WithLabelValues("to_non_leveraged").Inc()
	case from == trader.StateHoldingNonLeveraged && to == trader.StateHoldingLeveraged:
		l.metrics.Swaps.WithLabelValues("to_leveraged").Inc()
	case to == trader.StateOrderFailed:
		l.metrics.OrderFailures.Inc()
	}
}

func (l *Loop) buildCalendar(ctx context.Context) error {
	instruments, err := l.gw.FetchInstruments(ctx)
	if err != nil {
		return err
	}
	exchanges, err := l.gw.FetchExchanges(ctx)
	if err != nil {
		return err
	}
	l.cal = market.NewCalendar(exchanges, instruments)
	return nil
}

func (l *Loop) fetchPair(ctx context.Context) (base, lev models.Position, err error) {
	positions, err := l.gw.FetchPositions(ctx)
	if err != nil {
		return base, lev, err
	}
	var haveBase, haveLev bool
	for _, p := range positions {
		switch p.Ticker {
		case l.cfg.BaseTicker:
			base, haveBase = p, true
		case l.cfg.LevTicker:
			lev, haveLev = p, true
		}
	}
	if !haveBase || !haveLev {
		return base, lev, errors.Errorf("tracked positions missing from portfolio (base=%v lev=%v)", haveBase, haveLev)
	}
	return base, lev, nil
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// nextSchedule advances the absolute next-run timestamp so steady per-cycle
// overhead does not drift the cadence. An overrun resets to now: missed
// ticks are skipped, never caught up.
func nextSchedule(prev, now time.Time, interval time.Duration) (time.Time, time.Duration) {
	next := prev.Add(interval)
	wait := next.Sub(now)
	if wait < 0 {
		return now, 0
	}
	return next, wait
}
