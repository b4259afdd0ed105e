package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRotationDTO métricas de rotación de un producto dentro de la
// ventana analizada.
type ProductRotationDTO struct {
	ProductID      string          `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	CategoryName   string          `json:"category_name"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	TotalEntries   decimal.Decimal `json:"total_entries"`
	TotalExits     decimal.Decimal `json:"total_exits"`
	DaysSinceEntry int             `json:"days_since_entry"`
	VelocityPerDay decimal.Decimal `json:"velocity_per_day"`
	RotationRate   decimal.Decimal `json:"rotation_rate"`
	IsFastMoving   bool            `json:"is_fast_moving"`
	AgeBucket      string          `json:"age_bucket"`
}

// CategoryRotationDTO promedios de rotación por categoría.
type CategoryRotationDTO struct {
	CategoryName          string          `json:"category_name"`
	TotalProducts         int             `json:"total_products"`
	AvgDaysPermanence     decimal.Decimal `json:"avg_days_permanence"`
	AvgVelocityPerDay     decimal.Decimal `json:"avg_velocity_per_day"`
	FastMovingCount       int             `json:"fast_moving_count"`
	SlowMovingCount       int             `json:"slow_moving_count"`
	FastMovingPercentage  decimal.Decimal `json:"fast_moving_percentage"`
}

// AgeBucketDTO distribución de productos y unidades por edad de stock.
type AgeBucketDTO struct {
	Bucket   string          `json:"bucket"`
	Products int             `json:"products"`
	Units    decimal.Decimal `json:"units"`
}

// RotationGlobalStatsDTO agregados globales del reporte de rotación.
type RotationGlobalStatsDTO struct {
	TotalProducts        int             `json:"total_products"`
	FastMovingProducts   int             `json:"fast_moving_products"`
	SlowMovingProducts   int             `json:"slow_moving_products"`
	FastMovingPercentage decimal.Decimal `json:"fast_moving_percentage"`
	AvgDaysPermanence    decimal.Decimal `json:"avg_days_permanence"`
	AvgVelocityPerDay    decimal.Decimal `json:"avg_velocity_per_day"`
}

// RotationReportDTO reporte completo de rotación para una ventana.
type RotationReportDTO struct {
	Products           []ProductRotationDTO   `json:"products"`
	CategoryAverages   []CategoryRotationDTO  `json:"category_averages"`
	AgeDistribution    []AgeBucketDTO         `json:"age_distribution"`
	GlobalStats        RotationGlobalStatsDTO `json:"global_stats"`
	AnalysisPeriodDays int                    `json:"analysis_period_days"`
	GeneratedAt        time.Time              `json:"generated_at"`
}
