package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
)

// RecordMovementRequest cuerpo para registrar un movimiento.
// Quantity es la cantidad positiva para IN/OUT/INITIAL, o el stock objetivo
// absoluto para ADJUSTMENT.
type RecordMovementRequest struct {
	ProductID   string          `json:"product_id"`
	Kind        string          `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	Responsible string          `json:"responsible"`
	Reason      string          `json:"reason"`
	Notes       string          `json:"notes,omitempty"`
}

// MovementDTO representación de un movimiento del ledger.
type MovementDTO struct {
	Sequence        int64           `json:"sequence"`
	AuditID         string          `json:"audit_id"`
	ProductID       string          `json:"product_id"`
	Kind            string          `json:"kind"`
	Delta           decimal.Decimal `json:"delta"`
	Quantity        decimal.Decimal `json:"quantity"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Timestamp       time.Time       `json:"timestamp"`
	Responsible     string          `json:"responsible"`
	Reason          string          `json:"reason"`
	Notes           string          `json:"notes,omitempty"`
}

// NewMovementDTO convierte la entidad a DTO.
func NewMovementDTO(m *entity.Movement) MovementDTO {
	return MovementDTO{
		Sequence:        m.Sequence,
		AuditID:         m.AuditID,
		ProductID:       m.ProductID,
		Kind:            m.Kind,
		Delta:           m.Delta,
		Quantity:        m.Quantity(),
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Timestamp:       m.Timestamp,
		Responsible:     m.Responsible,
		Reason:          m.Reason,
		Notes:           m.Notes,
	}
}

// RecordMovementResponse respuesta de registro exitoso.
type RecordMovementResponse struct {
	Movement   MovementDTO     `json:"movement"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// KardexEntryDTO una fila del kardex de un producto.
type KardexEntryDTO struct {
	Sequence        int64           `json:"sequence"`
	Date            time.Time       `json:"date"`
	Kind            string          `json:"kind"`
	Reason          string          `json:"reason"`
	Responsible     string          `json:"responsible"`
	Quantity        decimal.Decimal `json:"quantity"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Notes           string          `json:"notes,omitempty"`
}

// KardexDTO historial completo de un producto más su saldo actual.
type KardexDTO struct {
	ProductID    string           `json:"product_id"`
	ProductCode  string           `json:"product_code"`
	ProductName  string           `json:"product_name"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	Movements    []KardexEntryDTO `json:"movements"`
}

// MovementStatsDTO estadísticas globales de movimientos.
type MovementStatsDTO struct {
	TotalMovements        int `json:"total_movements"`
	Entries               int `json:"entries"`
	Exits                 int `json:"exits"`
	Adjustments           int `json:"adjustments"`
	Initials              int `json:"initials"`
	CurrentMonth          int `json:"current_month"`
	ProductsWithMovements int `json:"products_with_movements"`
}
