package sqlite

// Schema DDL del ledger, la proyección y el catálogo local. A diferencia de
// PostgreSQL, el archivo SQLite es autocontenido: incluye las tablas de
// catálogo para entornos de un solo nodo. Los montos se guardan como TEXT
// para no perder precisión decimal.
const Schema = `
CREATE TABLE IF NOT EXISTS stock_movements (
	product_id       TEXT     NOT NULL,
	sequence         INTEGER  NOT NULL,
	audit_id         TEXT     NOT NULL UNIQUE,
	kind             TEXT     NOT NULL CHECK (kind IN ('INITIAL', 'IN', 'OUT', 'ADJUSTMENT')),
	delta            TEXT     NOT NULL,
	previous_balance TEXT     NOT NULL,
	new_balance      TEXT     NOT NULL,
	ts               DATETIME NOT NULL,
	responsible      TEXT     NOT NULL,
	reason           TEXT     NOT NULL,
	notes            TEXT     NOT NULL DEFAULT '',
	PRIMARY KEY (product_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_ts ON stock_movements(ts);
CREATE INDEX IF NOT EXISTS idx_stock_movements_product_ts ON stock_movements(product_id, ts);

CREATE TABLE IF NOT EXISTS stock_snapshots (
	product_id    TEXT     PRIMARY KEY,
	current_stock TEXT     NOT NULL,
	last_sequence INTEGER  NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS countries (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id                TEXT     PRIMARY KEY,
	code              TEXT     NOT NULL UNIQUE,
	name              TEXT     NOT NULL,
	category_id       TEXT     NOT NULL,
	country_id        TEXT     NOT NULL,
	registration_date DATETIME NOT NULL
);
`
