package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockByCategoryDTO stock agregado de una categoría y su participación
// porcentual sobre el total.
type StockByCategoryDTO struct {
	CategoryID    string          `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	TotalStock    decimal.Decimal `json:"total_stock"`
	TotalProducts int             `json:"total_products"`
	Percentage    float64         `json:"percentage"`
}

// StockByCountryDTO stock agregado por país.
type StockByCountryDTO struct {
	CountryID     string          `json:"country_id"`
	CountryName   string          `json:"country_name"`
	TotalStock    decimal.Decimal `json:"total_stock"`
	TotalProducts int             `json:"total_products"`
	Percentage    float64         `json:"percentage"`
}

// TimelineBucketDTO movimientos agregados en un período (día/semana/mes).
type TimelineBucketDTO struct {
	Period         string          `json:"period"`
	Date           time.Time       `json:"date"`
	Entries        decimal.Decimal `json:"entries"`
	Exits          decimal.Decimal `json:"exits"`
	Adjustments    decimal.Decimal `json:"adjustments"`
	TotalMovements int             `json:"total_movements"`
}

// MovementsSummaryDTO totales por tipo en un rango de fechas.
type MovementsSummaryDTO struct {
	TotalEntries    decimal.Decimal `json:"total_entries"`
	TotalExits      decimal.Decimal `json:"total_exits"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`
	NetDifference   decimal.Decimal `json:"net_difference"`
	TotalMovements  int             `json:"total_movements"`
	From            *time.Time      `json:"from,omitempty"`
	To              *time.Time      `json:"to,omitempty"`
}

// Niveles de alerta de stock bajo.
const (
	AlertLevelCritical = "critical"
	AlertLevelWarning  = "warning"
)

// LowStockAlertDTO producto en o por debajo del umbral de stock bajo.
type LowStockAlertDTO struct {
	ProductID    string          `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	CategoryName string          `json:"category_name"`
	CountryName  string          `json:"country_name"`
	AlertLevel   string          `json:"alert_level"`
}
