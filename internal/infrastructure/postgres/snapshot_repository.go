package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo proyección de saldos sobre PostgreSQL (usable con pool o tx).
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// Get devuelve el snapshot del producto, o uno en cero si no existe.
func (r *SnapshotRepo) Get(ctx context.Context, productID string) (*entity.StockSnapshot, error) {
	query := `
		SELECT product_id, current_stock, last_sequence, updated_at
		FROM stock_snapshots WHERE product_id = $1`
	var snap entity.StockSnapshot
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&snap.ProductID, &snap.CurrentStock, &snap.LastSequence, &snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockSnapshot{ProductID: productID, CurrentStock: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return &snap, nil
}

// Save inserta o reemplaza el snapshot del producto.
func (r *SnapshotRepo) Save(ctx context.Context, snap *entity.StockSnapshot) error {
	query := `
		INSERT INTO stock_snapshots (product_id, current_stock, last_sequence, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			current_stock = EXCLUDED.current_stock,
			last_sequence = EXCLUDED.last_sequence,
			updated_at    = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, snap.ProductID, snap.CurrentStock, snap.LastSequence, snap.UpdatedAt)
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
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockSnapshot
	for rows.Next() {
		var snap entity.StockSnapshot
		if err := rows.Scan(&snap.ProductID, &snap.CurrentStock, &snap.LastSequence, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.UpdatedAt = snap.UpdatedAt.UTC()
		list = append(list, &snap)
	}
	return list, rows.Err()
}
