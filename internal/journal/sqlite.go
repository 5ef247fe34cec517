package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(rec OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(run_id, order_id, ticker, quantity, limit_price, style, outcome, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.OrderID, rec.Ticker, rec.Quantity,
		rec.LimitPrice, rec.Style, rec.Outcome, rec.PlacedAt,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
