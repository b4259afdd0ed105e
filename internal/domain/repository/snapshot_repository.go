package repository

import (
	"context"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
)

// SnapshotRepository persiste el saldo cacheado por producto.
// Get devuelve un snapshot en cero (LastSequence 0) para productos sin
// movimientos; nunca pgx.ErrNoRows hacia arriba.
type SnapshotRepository interface {
	Get(ctx context.Context, productID string) (*entity.StockSnapshot, error)
	Save(ctx context.Context, snap *entity.StockSnapshot) error
	All(ctx context.Context) ([]*entity.StockSnapshot, error)
}
