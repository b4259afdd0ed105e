package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const movementColumns = "product_id, sequence, audit_id, kind, delta, previous_balance, new_balance, ts, responsible, reason, notes"

// LedgerRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append anota un movimiento. La PK (product_id, sequence) rechaza cualquier
// intento de reescribir una posición de la secuencia.
func (r *LedgerRepo) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ProductID, m.Sequence, m.AuditID, m.Kind,
		m.Delta, m.PreviousBalance, m.NewBalance,
		m.Timestamp, m.Responsible, m.Reason, m.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("secuencia %d de %s ya anotada: %w", m.Sequence, m.ProductID, err)
		}
		return fmt.Errorf("append movimiento: %w", err)
	}
	return nil
}

// Replay devuelve el historial completo del producto en orden de secuencia.
func (r *LedgerRepo) Replay(ctx context.Context, productID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE product_id = $1 ORDER BY sequence`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListWindow movimientos con ts >= since más el inmediatamente anterior
// (ancla del saldo de partida), en orden de secuencia.
func (r *LedgerRepo) ListWindow(ctx context.Context, productID string, since time.Time) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM (
			(SELECT ` + movementColumns + `
			 FROM stock_movements WHERE product_id = $1 AND ts < $2
			 ORDER BY sequence DESC LIMIT 1)
			UNION ALL
			(SELECT ` + movementColumns + `
			 FROM stock_movements WHERE product_id = $1 AND ts >= $2)
		) w ORDER BY sequence`
	rows, err := r.q.Query(ctx, query, productID, since)
	if err != nil {
		return nil, fmt.Errorf("ventana de movimientos: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// List movimientos filtrados, más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f repository.MovementFilters, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE 1=1`
	var args []any
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if len(f.ProductIDs) > 0 {
		query += fmt.Sprintf(" AND product_id = ANY($%d)", pos)
		args = append(args, f.ProductIDs)
		pos++
	}
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, f.Kind)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND ts >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND ts <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if f.Responsible != "" {
		query += fmt.Sprintf(" AND responsible ILIKE $%d", pos)
		args = append(args, "%"+f.Responsible+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY ts DESC, sequence DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// Timeline agrega |delta| y conteo por período y tipo. bucket: day, week o month.
func (r *LedgerRepo) Timeline(ctx context.Context, bucket string, from, to *time.Time) ([]repository.TimelineRow, error) {
	// date_trunc no acepta placeholder; el bucket se valida contra la lista cerrada.
	var trunc string
	switch bucket {
	case repository.BucketWeek:
		trunc = "week"
	case repository.BucketMonth:
		trunc = "month"
	case repository.BucketDay:
		trunc = "day"
	default:
		return nil, fmt.Errorf("bucket de timeline no soportado: %q", bucket)
	}

	query := fmt.Sprintf(`
		SELECT date_trunc('%s', ts AT TIME ZONE 'UTC') AT TIME ZONE 'UTC', kind, SUM(ABS(delta)), COUNT(*)
		FROM stock_movements WHERE 1=1`, trunc)
	var args []any
	pos := 1
	if from != nil {
		query += fmt.Sprintf(" AND ts >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND ts <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += " GROUP BY 1, 2 ORDER BY 1, 2"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	defer rows.Close()

	var out []repository.TimelineRow
	for rows.Next() {
		var row repository.TimelineRow
		if err := rows.Scan(&row.Period, &row.Kind, &row.TotalQuantity, &row.Movements); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		row.Period = row.Period.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// Summary totales por tipo dentro del filtro.
func (r *LedgerRepo) Summary(ctx context.Context, f repository.MovementFilters) (*repository.KindTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(delta)      FILTER (WHERE kind IN ('IN', 'INITIAL')), 0),
			COALESCE(SUM(ABS(delta)) FILTER (WHERE kind = 'OUT'), 0),
			COALESCE(SUM(ABS(delta)) FILTER (WHERE kind = 'ADJUSTMENT'), 0),
			COUNT(*) FILTER (WHERE kind IN ('IN', 'INITIAL')),
			COUNT(*) FILTER (WHERE kind = 'OUT'),
			COUNT(*) FILTER (WHERE kind = 'ADJUSTMENT')
		FROM stock_movements WHERE 1=1`
	var args []any
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if len(f.ProductIDs) > 0 {
		query += fmt.Sprintf(" AND product_id = ANY($%d)", pos)
		args = append(args, f.ProductIDs)
		pos++
	}
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, f.Kind)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND ts >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND ts <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if f.Responsible != "" {
		query += fmt.Sprintf(" AND responsible ILIKE $%d", pos)
		args = append(args, "%"+f.Responsible+"%")
	}

	var totals repository.KindTotals
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&totals.Entries, &totals.Exits, &totals.Adjustments,
		&totals.EntryCount, &totals.ExitCount, &totals.AdjustmentCount,
	)
	if err != nil {
		return nil, fmt.Errorf("resumen de movimientos: %w", err)
	}
	return &totals, nil
}

// Stats estadísticas globales de movimientos.
func (r *LedgerRepo) Stats(ctx context.Context, monthStart time.Time) (*repository.MovementStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE kind = 'IN'),
			COUNT(*) FILTER (WHERE kind = 'OUT'),
			COUNT(*) FILTER (WHERE kind = 'ADJUSTMENT'),
			COUNT(*) FILTER (WHERE kind = 'INITIAL'),
			COUNT(*) FILTER (WHERE ts >= $1),
			COUNT(DISTINCT product_id)
		FROM stock_movements`
	var stats repository.MovementStats
	err := r.q.QueryRow(ctx, query, monthStart).Scan(
		&stats.TotalMovements, &stats.Entries, &stats.Exits,
		&stats.Adjustments, &stats.Initials, &stats.CurrentMonth,
		&stats.ProductsWithMovements,
	)
	if err != nil {
		return nil, fmt.Errorf("stats de movimientos: %w", err)
	}
	return &stats, nil
}

type movementRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMovements(rows movementRows) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ProductID, &m.Sequence, &m.AuditID, &m.Kind,
			&m.Delta, &m.PreviousBalance, &m.NewBalance,
			&m.Timestamp, &m.Responsible, &m.Reason, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		list = append(list, &m)
	}
	return list, rows.Err()
}
