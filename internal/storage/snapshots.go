package storage

import (
	"context"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// StateSnapshot is one persisted row of the trader's decision state.
type StateSnapshot struct {
	RunID     string            `json:"run_id"`
	StateName string            `json:"state_name"`
	Signal    models.SignalData `json:"signal"`
	CreatedAt time.Time         `json:"created_at"`
}

// Sink persists per-cycle snapshots. Everything here is off the decision
// path; callers log failures and move on.
type Sink struct {
	tm    *db.PgTxManager
	runID string
}

func NewSink(tm *db.PgTxManager, runID string) *Sink {
	return &Sink{tm: tm, runID: runID}
}

const schema = `
CREATE TABLE IF NOT EXISTS positions_snapshots (
	id bigserial PRIMARY KEY,
	run_id text NOT NULL,
	positions jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS state_snapshots (
	id bigserial PRIMARY KEY,
	run_id text NOT NULL,
	state_name text NOT NULL,
	time_last_base_change timestamptz NOT NULL,
	base_value_at_last_change double precision NOT NULL,
	lev_value_at_last_change double precision NOT NULL,
	position_entry_price double precision NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_state_snapshots_created ON state_snapshots (created_at DESC);`

// EnsureSchema creates the snapshot tables if this is a fresh database.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
}

func (s *Sink) WritePositions(ctx context.Context, positions []models.Position) error {
	payload, err := sonic.Marshal(positions)
	if err != nil {
		return errors.Wrap(err, "marshal positions")
	}
	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO positions_snapshots (run_id, positions) VALUES ($1, $2)`,
			s.runID, payload,
		)
		return err
	})
}

func (s *Sink) WriteState(ctx context.Context, stateName string, sig models.SignalData) error {
	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO state_snapshots
			 (run_id, state_name, time_last_base_change, base_value_at_last_change,
			  lev_value_at_last_change, position_entry_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.runID, stateName, sig.TimeLastBaseChange,
			sig.BaseValueAtLastChange, sig.LevValueAtLastChange, sig.PositionEntryPrice,
		)
		return err
	})
}

// LastState reads back the most recent persisted state, across runs. Used at
// startup so the operator can compare the resumed state with the persisted one.
func (s *Sink) LastState(ctx context.Context) (StateSnapshot, error) {
	var snap StateSnapshot
	err := s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx,
			`SELECT run_id, state_name, time_last_base_change, base_value_at_last_change,
			        lev_value_at_last_change, position_entry_price, created_at
			 FROM state_snapshots ORDER BY created_at DESC LIMIT 1`,
		)
		return row.Scan(
			&snap.RunID, &snap.StateName, &snap.Signal.TimeLastBaseChange,
			&snap.Signal.BaseValueAtLastChange, &snap.Signal.LevValueAtLastChange,
			&snap.Signal.PositionEntryPrice, &snap.CreatedAt,
		)
	})
	return snap, err
}
