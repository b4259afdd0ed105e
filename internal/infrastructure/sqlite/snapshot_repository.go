package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo proyección de saldos sobre SQLite (usable con db o tx).
type SnapshotRepo struct {
	q querier
}

// NewSnapshotRepository construye el adaptador.
func NewSnapshotRepository(q querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// Get devuelve el snapshot del producto, o uno en cero si no existe.
func (r *SnapshotRepo) Get(ctx context.Context, productID string) (*entity.StockSnapshot, error) {
	query := `
		SELECT product_id, current_stock, last_sequence, updated_at
		FROM stock_snapshots WHERE product_id = ?`
	var snap entity.StockSnapshot
	var stock string
	err := r.q.QueryRowContext(ctx, query, productID).Scan(
		&snap.ProductID, &stock, &snap.LastSequence, &snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &entity.StockSnapshot{ProductID: productID, CurrentStock: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if snap.CurrentStock, err = parseDecimal(stock); err != nil {
		return nil, err
	}
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return &snap, nil
}

// Save inserta o reemplaza el snapshot del producto.
func (r *SnapshotRepo) Save(ctx context.Context, snap *entity.StockSnapshot) error {
	query := `
		INSERT INTO stock_snapshots (product_id, current_stock, last_sequence, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_id) DO UPDATE SET
			current_stock = excluded.current_stock,
			last_sequence = excluded.last_sequence,
			updated_at    = excluded.updated_at`
	_, err := r.q.ExecContext(ctx, query,
		snap.ProductID, decString(snap.CurrentStock), snap.LastSequence, snap.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// All devuelve todos los snapshots, ordenados por producto.
func (r *SnapshotRepo) All(ctx context.Context) ([]*entity.StockSnapshot, error) {
	query := `
		SELECT product_id, current_stock, last_sequence, updated_at
		FROM stock_snapshots ORDER BY product_id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockSnapshot
	for rows.Next() {
		var snap entity.StockSnapshot
		var stock string
		if err := rows.Scan(&snap.ProductID, &stock, &snap.LastSequence, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.CurrentStock, err = parseDecimal(stock); err != nil {
			return nil, err
		}
		snap.UpdatedAt = snap.UpdatedAt.UTC()
		list = append(list, &snap)
	}
	return list, rows.Err()
}
