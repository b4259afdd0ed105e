package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const movementColumns = "product_id, sequence, audit_id, kind, delta, previous_balance, new_balance, ts, responsible, reason, notes"

// LedgerRepo ledger append-only sobre SQLite (usable con db o tx).
type LedgerRepo struct {
	q querier
}

// NewLedgerRepository construye el adaptador.
func NewLedgerRepository(q querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append anota un movimiento. La PK (product_id, sequence) rechaza cualquier
// intento de reescribir una posición de la secuencia.
func (r *LedgerRepo) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query,
		m.ProductID, m.Sequence, m.AuditID, m.Kind,
		decString(m.Delta), decString(m.PreviousBalance), decString(m.NewBalance),
		m.Timestamp.UTC(), m.Responsible, m.Reason, m.Notes,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
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
		FROM stock_movements WHERE product_id = ? ORDER BY sequence`
	rows, err := r.q.QueryContext(ctx, query, productID)
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
			SELECT ` + movementColumns + `
			FROM stock_movements WHERE product_id = ? AND ts < ?
			ORDER BY sequence DESC LIMIT 1
		)
		UNION ALL
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE product_id = ? AND ts >= ?
		ORDER BY sequence`
	rows, err := r.q.QueryContext(ctx, query, productID, since.UTC(), productID, since.UTC())
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
	where, whereArgs := movementWhere(f)
	query += where
	args = append(args, whereArgs...)
	query += " ORDER BY ts DESC, sequence DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// movementWhere arma las condiciones compartidas por List y Summary.
func movementWhere(f repository.MovementFilters) (string, []any) {
	var sb strings.Builder
	var args []any
	if f.ProductID != "" {
		sb.WriteString(" AND product_id = ?")
		args = append(args, f.ProductID)
	}
	if len(f.ProductIDs) > 0 {
		sb.WriteString(" AND product_id IN (?" + strings.Repeat(", ?", len(f.ProductIDs)-1) + ")")
		for _, id := range f.ProductIDs {
			args = append(args, id)
		}
	}
	if f.Kind != "" {
		sb.WriteString(" AND kind = ?")
		args = append(args, f.Kind)
	}
	if f.From != nil {
		sb.WriteString(" AND ts >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		sb.WriteString(" AND ts <= ?")
		args = append(args, f.To.UTC())
	}
	if f.Responsible != "" {
		sb.WriteString(" AND responsible LIKE ? COLLATE NOCASE")
		args = append(args, "%"+f.Responsible+"%")
	}
	return sb.String(), args
}

// Timeline agrega |delta| y conteo por período y tipo. bucket: day, week o month.
func (r *LedgerRepo) Timeline(ctx context.Context, bucket string, from, to *time.Time) ([]repository.TimelineRow, error) {
	// El período se calcula en SQL como 'YYYY-MM-DD' (lunes para semanas,
	// día 1 para meses) y se parsea de vuelta a time.Time UTC.
	var periodExpr string
	switch bucket {
	case repository.BucketWeek:
		periodExpr = "date(ts, 'weekday 0', '-6 days')"
	case repository.BucketMonth:
		periodExpr = "strftime('%Y-%m-01', ts)"
	case repository.BucketDay:
		periodExpr = "strftime('%Y-%m-%d', ts)"
	default:
		return nil, fmt.Errorf("bucket de timeline no soportado: %q", bucket)
	}

	query := fmt.Sprintf(`
		SELECT %s AS period, kind, COALESCE(SUM(ABS(CAST(delta AS REAL))), 0), COUNT(*)
		FROM stock_movements WHERE 1=1`, periodExpr)
	var args []any
	if from != nil {
		query += " AND ts >= ?"
		args = append(args, from.UTC())
	}
	if to != nil {
		query += " AND ts <= ?"
		args = append(args, to.UTC())
	}
	query += " GROUP BY period, kind ORDER BY period, kind"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	defer rows.Close()

	var out []repository.TimelineRow
	for rows.Next() {
		var period string
		var total float64
		var row repository.TimelineRow
		if err := rows.Scan(&period, &row.Kind, &total, &row.Movements); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		if row.Period, err = parseDay(period); err != nil {
			return nil, err
		}
		row.TotalQuantity = decimalFromFloat(total)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Summary totales por tipo dentro del filtro.
func (r *LedgerRepo) Summary(ctx context.Context, f repository.MovementFilters) (*repository.KindTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN kind IN ('IN', 'INITIAL') THEN CAST(delta AS REAL) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'OUT' THEN ABS(CAST(delta AS REAL)) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'ADJUSTMENT' THEN ABS(CAST(delta AS REAL)) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind IN ('IN', 'INITIAL') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'OUT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'ADJUSTMENT' THEN 1 ELSE 0 END), 0)
		FROM stock_movements WHERE 1=1`
	where, args := movementWhere(f)
	query += where

	var entries, exits, adjustments float64
	var totals repository.KindTotals
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&entries, &exits, &adjustments,
		&totals.EntryCount, &totals.ExitCount, &totals.AdjustmentCount,
	)
	if err != nil {
		return nil, fmt.Errorf("resumen de movimientos: %w", err)
	}
	totals.Entries = decimalFromFloat(entries)
	totals.Exits = decimalFromFloat(exits)
	totals.Adjustments = decimalFromFloat(adjustments)
	return &totals, nil
}

// Stats estadísticas globales de movimientos.
func (r *LedgerRepo) Stats(ctx context.Context, monthStart time.Time) (*repository.MovementStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN kind = 'IN' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'OUT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'ADJUSTMENT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'INITIAL' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ts >= ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT product_id)
		FROM stock_movements`
	var stats repository.MovementStats
	err := r.q.QueryRowContext(ctx, query, monthStart.UTC()).Scan(
		&stats.TotalMovements, &stats.Entries, &stats.Exits,
		&stats.Adjustments, &stats.Initials, &stats.CurrentMonth,
		&stats.ProductsWithMovements,
	)
	if err != nil {
		return nil, fmt.Errorf("stats de movimientos: %w", err)
	}
	return &stats, nil
}

func scanMovements(rows *sql.Rows) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var delta, prev, next string
		if err := rows.Scan(&m.ProductID, &m.Sequence, &m.AuditID, &m.Kind,
			&delta, &prev, &next,
			&m.Timestamp, &m.Responsible, &m.Reason, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		var err error
		if m.Delta, err = parseDecimal(delta); err != nil {
			return nil, err
		}
		if m.PreviousBalance, err = parseDecimal(prev); err != nil {
			return nil, err
		}
		if m.NewBalance, err = parseDecimal(next); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		list = append(list, &m)
	}
	return list, rows.Err()
}
