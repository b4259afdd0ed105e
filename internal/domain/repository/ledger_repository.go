package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
)

// Buckets soportados por Timeline.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// MovementFilters filtros para listados y resúmenes de movimientos.
// ProductIDs permite acotar por un conjunto resuelto contra el catálogo
// (categoría o países); vacío = sin filtro.
type MovementFilters struct {
	ProductID   string
	ProductIDs  []string
	Kind        string
	From        *time.Time
	To          *time.Time
	Responsible string
}

// TimelineRow fila cruda de la agregación por período y tipo.
type TimelineRow struct {
	Period        time.Time
	Kind          string
	TotalQuantity decimal.Decimal
	Movements     int
}

// KindTotals sumas de cantidades por tipo de movimiento en un rango.
type KindTotals struct {
	Entries         decimal.Decimal // IN + INITIAL
	Exits           decimal.Decimal
	Adjustments     decimal.Decimal // suma de |delta| de ajustes
	EntryCount      int
	ExitCount       int
	AdjustmentCount int
}

// MovementStats estadísticas globales de movimientos.
type MovementStats struct {
	TotalMovements        int
	Entries               int
	Exits                 int
	Adjustments           int
	Initials              int
	CurrentMonth          int
	ProductsWithMovements int
}

// LedgerRepository es el puerto del Ledger Store: secuencia append-only de
// movimientos por producto, fuente única de verdad del stock.
//
// Append persiste exactamente un registro inmutable; nunca hay Update ni
// Delete. El resto de operaciones son de solo lectura.
type LedgerRepository interface {
	Append(ctx context.Context, m *entity.Movement) error

	// Replay devuelve el historial completo y ordenado de un producto,
	// para auditoría y reconciliación. Determinístico y reiniciable.
	Replay(ctx context.Context, productID string) ([]*entity.Movement, error)

	// ListWindow devuelve los movimientos con Timestamp >= since más el
	// movimiento inmediatamente anterior a la ventana (para establecer el
	// saldo de partida), ordenados por secuencia. La analítica de rotación
	// usa esto para no replayear historiales completos.
	ListWindow(ctx context.Context, productID string, since time.Time) ([]*entity.Movement, error)

	// List devuelve movimientos filtrados, más recientes primero.
	List(ctx context.Context, f MovementFilters, limit, offset int) ([]*entity.Movement, error)

	// Timeline agrega cantidades por período (day/week/month) y tipo.
	Timeline(ctx context.Context, bucket string, from, to *time.Time) ([]TimelineRow, error)

	// Summary suma cantidades por tipo dentro del filtro dado.
	Summary(ctx context.Context, f MovementFilters) (*KindTotals, error)

	// Stats estadísticas globales; monthStart delimita el mes en curso.
	Stats(ctx context.Context, monthStart time.Time) (*MovementStats, error)
}
