package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSnapshot es el saldo cacheado derivado del ledger, mantenido por la
// proyección de saldos. Es el único "stock actual" autoritativo; debe ser
// reproducible replayeando el ledger completo del producto.
//
// Invariante: CurrentStock = NewBalance del movimiento con
// Sequence == LastSequence.
type StockSnapshot struct {
	ProductID    string
	CurrentStock decimal.Decimal
	LastSequence int64 // 0 = sin movimientos
	UpdatedAt    time.Time
}
