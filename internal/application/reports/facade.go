// Package reports compone vistas de solo lectura (stock por categoría y
// país, timeline de movimientos, alertas de stock bajo) a partir de la
// proyección de saldos y el ledger. No tiene invariantes propios: nunca
// devuelve datos más viejos que el último movimiento aplicado que observó.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/application/dto"
	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// Config umbrales de alertas de stock bajo.
type Config struct {
	LowStockThreshold decimal.Decimal // alerta warning en o por debajo de este stock
	CriticalThreshold decimal.Decimal // alerta critical en o por debajo de este stock
}

// DefaultConfig umbrales históricos: warning <= 10, critical <= 5.
func DefaultConfig() Config {
	return Config{
		LowStockThreshold: decimal.NewFromInt(10),
		CriticalThreshold: decimal.NewFromInt(5),
	}
}

// Facade arma los reportes agregados del inventario.
type Facade struct {
	catalog    repository.CatalogRepository
	proj       *ledger.Projector
	ledgerRepo repository.LedgerRepository
	cfg        Config
}

// NewFacade construye la fachada de reportes.
func NewFacade(
	catalog repository.CatalogRepository,
	proj *ledger.Projector,
	ledgerRepo repository.LedgerRepository,
	cfg Config,
) *Facade {
	if cfg.LowStockThreshold.IsZero() {
		cfg.LowStockThreshold = DefaultConfig().LowStockThreshold
	}
	if cfg.CriticalThreshold.IsZero() {
		cfg.CriticalThreshold = DefaultConfig().CriticalThreshold
	}
	return &Facade{catalog: catalog, proj: proj, ledgerRepo: ledgerRepo, cfg: cfg}
}

type stockGroup struct {
	id       string
	name     string
	stock    decimal.Decimal
	products int
}

// StockByCategory agrupa el stock actual por categoría con participación
// porcentual sobre el total.
func (f *Facade) StockByCategory(ctx context.Context, filters repository.ProductFilters) ([]dto.StockByCategoryDTO, error) {
	groups, total, err := f.groupStock(ctx, filters, func(p *entity.Product) (string, string) {
		return p.CategoryID, p.CategoryName
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockByCategoryDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.StockByCategoryDTO{
			CategoryID:    g.id,
			CategoryName:  g.name,
			TotalStock:    g.stock,
			TotalProducts: g.products,
			Percentage:    percentage(g.stock, total),
		})
	}
	return out, nil
}

// StockByCountry agrupa el stock actual por país.
func (f *Facade) StockByCountry(ctx context.Context, countryIDs []string) ([]dto.StockByCountryDTO, error) {
	groups, total, err := f.groupStock(ctx, repository.ProductFilters{CountryIDs: countryIDs},
		func(p *entity.Product) (string, string) {
			return p.CountryID, p.CountryName
		})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockByCountryDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.StockByCountryDTO{
			CountryID:     g.id,
			CountryName:   g.name,
			TotalStock:    g.stock,
			TotalProducts: g.products,
			Percentage:    percentage(g.stock, total),
		})
	}
	return out, nil
}

// groupStock suma saldos de la proyección agrupando por la clave dada,
// en orden alfabético por nombre de grupo.
func (f *Facade) groupStock(
	ctx context.Context,
	filters repository.ProductFilters,
	key func(*entity.Product) (id, name string),
) ([]stockGroup, decimal.Decimal, error) {
	products, err := f.catalog.ListProducts(ctx, filters)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("listar productos: %w", err)
	}

	byKey := make(map[string]*stockGroup)
	total := decimal.Zero
	for _, p := range products {
		balance, err := f.proj.Balance(ctx, p.ID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		id, name := key(p)
		g := byKey[id]
		if g == nil {
			g = &stockGroup{id: id, name: name, stock: decimal.Zero}
			byKey[id] = g
		}
		g.stock = g.stock.Add(balance)
		g.products++
		total = total.Add(balance)
	}

	groups := make([]stockGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups, total, nil
}

func percentage(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// MovementsTimeline agrega entradas/salidas/ajustes por período
// (day, week o month) para gráficos de actividad.
func (f *Facade) MovementsTimeline(ctx context.Context, groupBy string, from, to *time.Time) ([]dto.TimelineBucketDTO, error) {
	switch groupBy {
	case repository.BucketDay, repository.BucketWeek, repository.BucketMonth:
	case "":
		groupBy = repository.BucketDay
	default:
		return nil, fmt.Errorf("agrupación de timeline no soportada: %q", groupBy)
	}

	rows, err := f.ledgerRepo.Timeline(ctx, groupBy, from, to)
	if err != nil {
		return nil, fmt.Errorf("timeline de movimientos: %w", err)
	}

	buckets := make(map[string]*dto.TimelineBucketDTO)
	for _, row := range rows {
		label := periodLabel(groupBy, row.Period)
		b := buckets[label]
		if b == nil {
			b = &dto.TimelineBucketDTO{
				Period:      label,
				Date:        row.Period,
				Entries:     decimal.Zero,
				Exits:       decimal.Zero,
				Adjustments: decimal.Zero,
			}
			buckets[label] = b
		}
		switch row.Kind {
		case entity.MovementKindIN, entity.MovementKindINITIAL:
			b.Entries = b.Entries.Add(row.TotalQuantity)
		case entity.MovementKindOUT:
			b.Exits = b.Exits.Add(row.TotalQuantity)
		case entity.MovementKindADJUSTMENT:
			b.Adjustments = b.Adjustments.Add(row.TotalQuantity)
		}
		b.TotalMovements += row.Movements
	}

	out := make([]dto.TimelineBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// periodLabel formatea el período según la agrupación, como lo espera la UI
// de reportes ("2026-08-28", "Semana 35-2026", "2026-08").
func periodLabel(groupBy string, period time.Time) string {
	switch groupBy {
	case repository.BucketMonth:
		return period.Format("2006-01")
	case repository.BucketWeek:
		year, week := period.ISOWeek()
		return fmt.Sprintf("Semana %02d-%d", week, year)
	default:
		return period.Format("2006-01-02")
	}
}

// MovementsSummary totales por tipo y diferencia neta en un rango, con
// filtro opcional por categoría (resuelto contra el catálogo).
func (f *Facade) MovementsSummary(ctx context.Context, from, to *time.Time, categoryID string) (*dto.MovementsSummaryDTO, error) {
	filters := repository.MovementFilters{From: from, To: to}
	if categoryID != "" {
		products, err := f.catalog.ListProducts(ctx, repository.ProductFilters{CategoryID: categoryID})
		if err != nil {
			return nil, fmt.Errorf("resolver categoría %s: %w", categoryID, err)
		}
		ids := make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		if len(ids) == 0 {
			return &dto.MovementsSummaryDTO{
				TotalEntries: decimal.Zero, TotalExits: decimal.Zero,
				TotalAdjustments: decimal.Zero, NetDifference: decimal.Zero,
				From: from, To: to,
			}, nil
		}
		filters.ProductIDs = ids
	}

	totals, err := f.ledgerRepo.Summary(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("resumen de movimientos: %w", err)
	}
	return &dto.MovementsSummaryDTO{
		TotalEntries:     totals.Entries,
		TotalExits:       totals.Exits,
		TotalAdjustments: totals.Adjustments,
		NetDifference:    totals.Entries.Sub(totals.Exits),
		TotalMovements:   totals.EntryCount + totals.ExitCount + totals.AdjustmentCount,
		From:             from,
		To:               to,
	}, nil
}

// LowStockAlerts productos con stock en o por debajo del umbral, ordenados
// de menor a mayor stock. threshold en cero usa el umbral configurado.
func (f *Facade) LowStockAlerts(ctx context.Context, threshold decimal.Decimal, countryIDs []string) ([]dto.LowStockAlertDTO, error) {
	if threshold.IsZero() {
		threshold = f.cfg.LowStockThreshold
	}
	products, err := f.catalog.ListProducts(ctx, repository.ProductFilters{CountryIDs: countryIDs})
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}

	var alerts []dto.LowStockAlertDTO
	for _, p := range products {
		balance, err := f.proj.Balance(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if balance.GreaterThan(threshold) {
			continue
		}
		level := dto.AlertLevelWarning
		if balance.LessThanOrEqual(f.cfg.CriticalThreshold) {
			level = dto.AlertLevelCritical
		}
		alerts = append(alerts, dto.LowStockAlertDTO{
			ProductID:    p.ID,
			ProductCode:  p.Code,
			ProductName:  p.Name,
			CurrentStock: balance,
			CategoryName: p.CategoryName,
			CountryName:  p.CountryName,
			AlertLevel:   level,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CurrentStock.Equal(alerts[j].CurrentStock) {
			return alerts[i].CurrentStock.LessThan(alerts[j].CurrentStock)
		}
		return alerts[i].ProductCode < alerts[j].ProductCode
	})
	return alerts, nil
}
