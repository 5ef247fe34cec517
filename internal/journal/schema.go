package journal

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	order_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	quantity REAL NOT NULL,
	limit_price REAL NOT NULL DEFAULT 0,
	style TEXT NOT NULL,
	outcome TEXT NOT NULL,
	placed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_run ON orders(run_id);
`
