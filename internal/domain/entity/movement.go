package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger de inventario.
const (
	MovementKindINITIAL    = "INITIAL"    // carga inicial al registrar el producto
	MovementKindIN         = "IN"         // entrada
	MovementKindOUT        = "OUT"        // salida
	MovementKindADJUSTMENT = "ADJUSTMENT" // ajuste a un stock objetivo
)

// ValidMovementKind reporta si kind es uno de los tipos soportados.
func ValidMovementKind(kind string) bool {
	switch kind {
	case MovementKindINITIAL, MovementKindIN, MovementKindOUT, MovementKindADJUSTMENT:
		return true
	}
	return false
}

// Movement es una entrada inmutable del ledger. Una vez persistida nunca se
// actualiza ni se borra; las correcciones son nuevos movimientos ADJUSTMENT.
//
// Invariantes:
//   - NewBalance = PreviousBalance + Delta
//   - PreviousBalance del movimiento n = NewBalance del movimiento n-1
//     (el primero parte de 0)
//   - NewBalance nunca es negativo
//   - Sequence es monótono por producto y Timestamp no decrece dentro de la
//     secuencia de un producto
type Movement struct {
	Sequence        int64  // asignado por producto, empieza en 1
	AuditID         string // UUID de correlación para auditoría
	ProductID       string
	Kind            string
	Delta           decimal.Decimal // con signo: IN/INITIAL >= 0, OUT <= 0, ADJUSTMENT cualquiera
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Timestamp       time.Time
	Responsible     string
	Reason          string
	Notes           string
}

// Quantity devuelve la magnitud del movimiento (valor absoluto del delta),
// como se muestra en el kardex.
func (m *Movement) Quantity() decimal.Decimal {
	return m.Delta.Abs()
}

// IsEntry reporta si el movimiento suma stock de entrada (IN o INITIAL).
func (m *Movement) IsEntry() bool {
	return m.Kind == MovementKindIN || m.Kind == MovementKindINITIAL
}
