package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema DDL del ledger y la proyección. El catálogo de productos
// (products, categories, countries) lo administra otro sistema; aquí solo
// se leen esas tablas.
const Schema = `
CREATE TABLE IF NOT EXISTS stock_movements (
	product_id       TEXT        NOT NULL,
	sequence         BIGINT      NOT NULL,
	audit_id         TEXT        NOT NULL UNIQUE,
	kind             TEXT        NOT NULL CHECK (kind IN ('INITIAL', 'IN', 'OUT', 'ADJUSTMENT')),
	delta            NUMERIC     NOT NULL,
	previous_balance NUMERIC     NOT NULL,
	new_balance      NUMERIC     NOT NULL,
	ts               TIMESTAMPTZ NOT NULL,
	responsible      TEXT        NOT NULL,
	reason           TEXT        NOT NULL,
	notes            TEXT        NOT NULL DEFAULT '',
	PRIMARY KEY (product_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_ts ON stock_movements (ts);
CREATE INDEX IF NOT EXISTS idx_stock_movements_product_ts ON stock_movements (product_id, ts);

CREATE TABLE IF NOT EXISTS stock_snapshots (
	product_id    TEXT        PRIMARY KEY,
	current_stock NUMERIC     NOT NULL,
	last_sequence BIGINT      NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema crea las tablas del ledger si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("crear esquema: %w", err)
	}
	return nil
}
