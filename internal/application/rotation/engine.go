// Package rotation calcula métricas de rotación de inventario (edad,
// velocidad de salida, clasificación rápido/lento) sobre una ventana acotada
// del ledger. Solo lee; nunca muta el ledger ni la proyección.
package rotation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/application/dto"
	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// Etiquetas de los buckets de edad de stock.
const (
	AgeBucket0to30  = "0-30"
	AgeBucket31to60 = "31-60"
	AgeBucket61to90 = "61-90"
	AgeBucket90Plus = "90+"
)

// Config parámetros de negocio del análisis de rotación. El umbral de
// "fast-moving" y los cortes de edad son configuración, no regla fija:
// sus valores por defecto vienen del uso histórico, no de una definición
// contable.
type Config struct {
	FastMovingThreshold decimal.Decimal // % de rotación a partir del cual un producto es fast-moving
	AgeBreakpoints      [3]int          // cortes de edad en días (ej. 30/60/90)
	DefaultWindowDays   int             // ventana de análisis si el caller no indica una
}

// DefaultConfig valores por defecto: umbral 50%, cortes 30/60/90, ventana 90 días.
func DefaultConfig() Config {
	return Config{
		FastMovingThreshold: decimal.NewFromInt(50),
		AgeBreakpoints:      [3]int{30, 60, 90},
		DefaultWindowDays:   90,
	}
}

// Filter acota el análisis por categoría y/o países.
type Filter struct {
	CategoryID string
	CountryIDs []string
}

// Engine computa el reporte de rotación. Lee una ventana acotada del ledger
// (ListWindow) por producto; nunca requiere replay completo, y tolera que la
// proyección avance durante el cómputo porque solo observa movimientos ya
// confirmados.
type Engine struct {
	ledgerRepo repository.LedgerRepository
	proj       *ledger.Projector
	catalog    repository.CatalogRepository
	clock      domain.Clock
	cfg        Config
}

// NewEngine construye el motor de rotación.
func NewEngine(
	ledgerRepo repository.LedgerRepository,
	proj *ledger.Projector,
	catalog repository.CatalogRepository,
	clock domain.Clock,
	cfg Config,
) *Engine {
	if cfg.FastMovingThreshold.IsZero() {
		cfg.FastMovingThreshold = DefaultConfig().FastMovingThreshold
	}
	if cfg.AgeBreakpoints == [3]int{} {
		cfg.AgeBreakpoints = DefaultConfig().AgeBreakpoints
	}
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = DefaultConfig().DefaultWindowDays
	}
	return &Engine{ledgerRepo: ledgerRepo, proj: proj, catalog: catalog, clock: clock, cfg: cfg}
}

// categoryAccum acumulador por categoría durante el único pase por producto.
type categoryAccum struct {
	products   int
	totalDays  int
	velocities decimal.Decimal
	fast       int
	slow       int
}

// Compute genera el reporte de rotación para la ventana dada. Con el mismo
// snapshot del ledger y el mismo reloj, el resultado es idéntico en cada
// invocación.
func (e *Engine) Compute(ctx context.Context, windowDays int, f Filter) (*dto.RotationReportDTO, error) {
	if windowDays <= 0 {
		windowDays = e.cfg.DefaultWindowDays
	}
	now := e.clock.Now().UTC()
	since := now.AddDate(0, 0, -windowDays)

	products, err := e.catalog.ListProducts(ctx, repository.ProductFilters{
		CategoryID: f.CategoryID,
		CountryIDs: f.CountryIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("listar productos para rotación: %w", err)
	}

	report := &dto.RotationReportDTO{
		Products:           make([]dto.ProductRotationDTO, 0, len(products)),
		AnalysisPeriodDays: windowDays,
		GeneratedAt:        now,
	}
	categories := make(map[string]*categoryAccum)
	ageBuckets := map[string]*dto.AgeBucketDTO{
		AgeBucket0to30:  {Bucket: AgeBucket0to30, Units: decimal.Zero},
		AgeBucket31to60: {Bucket: AgeBucket31to60, Units: decimal.Zero},
		AgeBucket61to90: {Bucket: AgeBucket61to90, Units: decimal.Zero},
		AgeBucket90Plus: {Bucket: AgeBucket90Plus, Units: decimal.Zero},
	}

	totalDays := 0
	totalVelocity := decimal.Zero
	fastTotal := 0

	for _, product := range products {
		rec, err := e.computeProduct(ctx, product, now, since, windowDays)
		if err != nil {
			return nil, err
		}
		report.Products = append(report.Products, rec)

		bucket := ageBuckets[rec.AgeBucket]
		bucket.Products++
		bucket.Units = bucket.Units.Add(rec.CurrentStock)

		cat := categories[rec.CategoryName]
		if cat == nil {
			cat = &categoryAccum{velocities: decimal.Zero}
			categories[rec.CategoryName] = cat
		}
		cat.products++
		cat.totalDays += rec.DaysSinceEntry
		cat.velocities = cat.velocities.Add(rec.VelocityPerDay)
		if rec.IsFastMoving {
			cat.fast++
			fastTotal++
		} else {
			cat.slow++
		}

		totalDays += rec.DaysSinceEntry
		totalVelocity = totalVelocity.Add(rec.VelocityPerDay)
	}

	report.CategoryAverages = buildCategoryAverages(categories)
	report.AgeDistribution = []dto.AgeBucketDTO{
		*ageBuckets[AgeBucket0to30],
		*ageBuckets[AgeBucket31to60],
		*ageBuckets[AgeBucket61to90],
		*ageBuckets[AgeBucket90Plus],
	}
	report.GlobalStats = buildGlobalStats(len(report.Products), fastTotal, totalDays, totalVelocity)
	return report, nil
}

// computeProduct calcula las métricas de un producto en un solo pase por su
// ventana de movimientos.
func (e *Engine) computeProduct(
	ctx context.Context,
	product *entity.Product,
	now, since time.Time,
	windowDays int,
) (dto.ProductRotationDTO, error) {
	movements, err := e.ledgerRepo.ListWindow(ctx, product.ID, since)
	if err != nil {
		return dto.ProductRotationDTO{}, fmt.Errorf("ventana de movimientos %s: %w", product.ID, err)
	}
	currentStock, err := e.proj.Balance(ctx, product.ID)
	if err != nil {
		return dto.ProductRotationDTO{}, err
	}

	totalEntries := decimal.Zero
	totalExits := decimal.Zero
	firstEntry := time.Time{}
	for _, m := range movements {
		// La primera entrada real del producto solo es visible si su primer
		// movimiento cae en la ventana; si no, se usa la fecha de registro
		// del catálogo (misma época: la carga inicial se anota al crear el
		// producto).
		if m.Sequence == 1 && m.IsEntry() {
			firstEntry = m.Timestamp
		}
		if m.Timestamp.Before(since) {
			// Movimiento ancla anterior a la ventana: solo establece saldo
			// de partida, no cuenta en los totales.
			continue
		}
		switch {
		case m.IsEntry():
			totalEntries = totalEntries.Add(m.Delta)
		case m.Kind == entity.MovementKindOUT:
			totalExits = totalExits.Add(m.Delta.Abs())
		}
	}
	if firstEntry.IsZero() {
		firstEntry = product.RegistrationDate
	}

	daysSinceEntry := 0
	if !firstEntry.IsZero() && firstEntry.Before(now) {
		daysSinceEntry = int(now.Sub(firstEntry).Hours() / 24)
	}

	velocity := totalExits.Div(decimal.NewFromInt(int64(windowDays))).Round(2)

	// rotation_rate = salidas en ventana / max(stock actual, 1) * 100
	divisor := currentStock
	if divisor.LessThan(decimal.NewFromInt(1)) {
		divisor = decimal.NewFromInt(1)
	}
	rate := totalExits.Div(divisor).Mul(decimal.NewFromInt(100)).Round(2)

	return dto.ProductRotationDTO{
		ProductID:      product.ID,
		ProductCode:    product.Code,
		ProductName:    product.Name,
		CategoryName:   product.CategoryName,
		CurrentStock:   currentStock,
		TotalEntries:   totalEntries,
		TotalExits:     totalExits,
		DaysSinceEntry: daysSinceEntry,
		VelocityPerDay: velocity,
		RotationRate:   rate,
		IsFastMoving:   rate.GreaterThanOrEqual(e.cfg.FastMovingThreshold),
		AgeBucket:      e.ageBucket(daysSinceEntry),
	}, nil
}

func (e *Engine) ageBucket(days int) string {
	switch {
	case days <= e.cfg.AgeBreakpoints[0]:
		return AgeBucket0to30
	case days <= e.cfg.AgeBreakpoints[1]:
		return AgeBucket31to60
	case days <= e.cfg.AgeBreakpoints[2]:
		return AgeBucket61to90
	default:
		return AgeBucket90Plus
	}
}

// buildCategoryAverages promedia los acumuladores por categoría, en orden
// alfabético para que el reporte sea determinístico.
func buildCategoryAverages(categories map[string]*categoryAccum) []dto.CategoryRotationDTO {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]dto.CategoryRotationDTO, 0, len(names))
	for _, name := range names {
		c := categories[name]
		n := decimal.NewFromInt(int64(c.products))
		out = append(out, dto.CategoryRotationDTO{
			CategoryName:         name,
			TotalProducts:        c.products,
			AvgDaysPermanence:    decimal.NewFromInt(int64(c.totalDays)).Div(n).Round(1),
			AvgVelocityPerDay:    c.velocities.Div(n).Round(3),
			FastMovingCount:      c.fast,
			SlowMovingCount:      c.slow,
			FastMovingPercentage: decimal.NewFromInt(int64(c.fast)).Div(n).Mul(decimal.NewFromInt(100)).Round(1),
		})
	}
	return out
}

func buildGlobalStats(total, fast, totalDays int, totalVelocity decimal.Decimal) dto.RotationGlobalStatsDTO {
	stats := dto.RotationGlobalStatsDTO{
		TotalProducts:        total,
		FastMovingProducts:   fast,
		SlowMovingProducts:   total - fast,
		FastMovingPercentage: decimal.Zero,
		AvgDaysPermanence:    decimal.Zero,
		AvgVelocityPerDay:    decimal.Zero,
	}
	if total == 0 {
		return stats
	}
	n := decimal.NewFromInt(int64(total))
	stats.FastMovingPercentage = decimal.NewFromInt(int64(fast)).Div(n).Mul(decimal.NewFromInt(100)).Round(1)
	stats.AvgDaysPermanence = decimal.NewFromInt(int64(totalDays)).Div(n).Round(1)
	stats.AvgVelocityPerDay = totalVelocity.Div(n).Round(3)
	return stats
}
