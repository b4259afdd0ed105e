// Package sqlite implementa el ledger sobre un archivo SQLite. Es el driver
// de instalaciones de un solo nodo; los montos viajan como TEXT de/para
// shopspring/decimal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// querier lo cumplen *sql.DB y *sql.Tx; los repositorios funcionan igual
// dentro y fuera de una transacción.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store abre y posee la conexión al archivo SQLite.
type Store struct {
	db *sql.DB
}

// Open abre (o crea) el archivo y asegura el esquema. Se serializan las
// escrituras en una sola conexión: SQLite no admite escritores concurrentes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_fk=1&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("crear esquema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB expone la conexión para construir los repositorios.
func (s *Store) DB() *sql.DB { return s.db }

// Close cierra el archivo.
func (s *Store) Close() error { return s.db.Close() }

func decString(d decimal.Decimal) string { return d.String() }

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("monto inválido %q: %w", s, err)
	}
	return d, nil
}

// decimalFromFloat convierte agregados SUM(...) calculados por SQLite como
// REAL. Los saldos del ledger nunca pasan por aquí; solo totales de reportes.
func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// parseDay interpreta un período "YYYY-MM-DD" producido por strftime/date.
func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("período inválido %q: %w", s, err)
	}
	return t, nil
}
