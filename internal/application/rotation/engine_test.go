package rotation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/application/rotation"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del motor de rotación: fórmulas de velocidad y tasa sobre ventana
// acotada, exclusión del movimiento ancla, buckets de edad y determinismo.
// ──────────────────────────────────────────────────────────────────────────────

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var rotNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func seedProduct(store *memory.Store, id, code, category string, registered time.Time) {
	store.PutProduct(&entity.Product{
		ID: id, Code: code, Name: "Producto " + code,
		CategoryID: category, CategoryName: "Cat " + category,
		CountryID: "co", CountryName: "Colombia",
		RegistrationDate: registered,
	})
}

func seedMovement(t *testing.T, store *memory.Store, productID string, seq int64, kind string, delta, prev int64, ts time.Time) {
	t.Helper()
	d := decimal.NewFromInt(delta)
	p := decimal.NewFromInt(prev)
	require.NoError(t, store.Append(context.Background(), &entity.Movement{
		Sequence: seq, AuditID: fmt.Sprintf("%s-%d", productID, seq), ProductID: productID, Kind: kind,
		Delta: d, PreviousBalance: p, NewBalance: p.Add(d),
		Timestamp: ts, Responsible: "Sistema", Reason: "test",
	}))
}

func seedBalance(t *testing.T, store *memory.Store, productID string, stock, lastSeq int64, ts time.Time) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), &entity.StockSnapshot{
		ProductID:    productID,
		CurrentStock: decimal.NewFromInt(stock),
		LastSequence: lastSeq,
		UpdatedAt:    ts,
	}))
}

func newEngine(store *memory.Store, cfg rotation.Config) *rotation.Engine {
	proj := ledger.NewProjector(store, store)
	return rotation.NewEngine(store, proj, store, fixedClock{t: rotNow}, cfg)
}

func TestCompute_VelocidadYTasaEnVentana(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -40))

	// Carga inicial fuera de la ventana de 30 días (queda como ancla) y una
	// salida de 60 unidades dentro de la ventana. Stock actual: 120.
	seedMovement(t, store, "p1", 1, entity.MovementKindINITIAL, 180, 0, rotNow.AddDate(0, 0, -40))
	seedMovement(t, store, "p1", 2, entity.MovementKindOUT, -60, 180, rotNow.AddDate(0, 0, -10))
	seedBalance(t, store, "p1", 120, 2, rotNow.AddDate(0, 0, -10))

	report, err := newEngine(store, rotation.Config{}).Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	require.Len(t, report.Products, 1)
	rec := report.Products[0]

	// velocity = 60 / 30 días; rate = 60 / 120 * 100.
	assert.True(t, rec.VelocityPerDay.Equal(decimal.NewFromInt(2)), "velocidad: %s", rec.VelocityPerDay)
	assert.True(t, rec.RotationRate.Equal(decimal.NewFromInt(50)), "tasa: %s", rec.RotationRate)
	assert.True(t, rec.IsFastMoving, "50%% alcanza el umbral por defecto")

	// El ancla solo fija contexto: sus 180 unidades no cuentan como entrada,
	// pero su timestamp sí define la antigüedad (primer movimiento real).
	assert.True(t, rec.TotalEntries.IsZero())
	assert.True(t, rec.TotalExits.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 40, rec.DaysSinceEntry)
	assert.Equal(t, rotation.AgeBucket31to60, rec.AgeBucket)

	assert.Equal(t, 30, report.AnalysisPeriodDays)
	assert.Equal(t, rotNow, report.GeneratedAt)
}

func TestCompute_StockCeroUsaDivisorUno(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -5))
	seedMovement(t, store, "p1", 1, entity.MovementKindINITIAL, 30, 0, rotNow.AddDate(0, 0, -5))
	seedMovement(t, store, "p1", 2, entity.MovementKindOUT, -30, 30, rotNow.AddDate(0, 0, -2))
	seedBalance(t, store, "p1", 0, 2, rotNow.AddDate(0, 0, -2))

	report, err := newEngine(store, rotation.Config{}).Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	require.Len(t, report.Products, 1)

	// Con stock 0 el divisor se fija en 1: tasa = 30 / 1 * 100.
	assert.True(t, report.Products[0].RotationRate.Equal(decimal.NewFromInt(3000)))
	assert.True(t, report.Products[0].IsFastMoving)
}

func TestCompute_SinMovimientosUsaFechaDeRegistro(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -20))
	seedProduct(store, "p2", "SKU-002", "c1", rotNow.AddDate(0, 0, -70))
	seedProduct(store, "p3", "SKU-003", "c2", rotNow.AddDate(0, 0, -200))

	report, err := newEngine(store, rotation.Config{}).Compute(context.Background(), 90, rotation.Filter{})
	require.NoError(t, err)
	require.Len(t, report.Products, 3)

	byCode := map[string]int{}
	for _, rec := range report.Products {
		byCode[rec.ProductCode] = rec.DaysSinceEntry
		assert.True(t, rec.VelocityPerDay.IsZero())
		assert.False(t, rec.IsFastMoving)
	}
	assert.Equal(t, 20, byCode["SKU-001"])
	assert.Equal(t, 70, byCode["SKU-002"])
	assert.Equal(t, 200, byCode["SKU-003"])

	// Distribución por edad: siempre los 4 buckets, en orden fijo.
	require.Len(t, report.AgeDistribution, 4)
	assert.Equal(t, rotation.AgeBucket0to30, report.AgeDistribution[0].Bucket)
	assert.Equal(t, 1, report.AgeDistribution[0].Products)
	assert.Equal(t, 1, report.AgeDistribution[2].Products) // 61-90: SKU-002
	assert.Equal(t, 1, report.AgeDistribution[3].Products) // 90+: SKU-003
}

func TestCompute_PromediosPorCategoria(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -10))
	seedProduct(store, "p2", "SKU-002", "c1", rotNow.AddDate(0, 0, -10))

	// p1 rota fuerte (fast), p2 no se mueve (slow).
	seedMovement(t, store, "p1", 1, entity.MovementKindINITIAL, 100, 0, rotNow.AddDate(0, 0, -10))
	seedMovement(t, store, "p1", 2, entity.MovementKindOUT, -90, 100, rotNow.AddDate(0, 0, -5))
	seedBalance(t, store, "p1", 10, 2, rotNow.AddDate(0, 0, -5))
	seedMovement(t, store, "p2", 1, entity.MovementKindINITIAL, 100, 0, rotNow.AddDate(0, 0, -10))
	seedBalance(t, store, "p2", 100, 1, rotNow.AddDate(0, 0, -10))

	report, err := newEngine(store, rotation.Config{}).Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	require.Len(t, report.CategoryAverages, 1)
	cat := report.CategoryAverages[0]

	assert.Equal(t, "Cat c1", cat.CategoryName)
	assert.Equal(t, 2, cat.TotalProducts)
	assert.Equal(t, 1, cat.FastMovingCount)
	assert.Equal(t, 1, cat.SlowMovingCount)
	assert.True(t, cat.FastMovingPercentage.Equal(decimal.NewFromInt(50)))
	// velocidades: p1 = 3 (90/30), p2 = 0 → promedio 1.5
	assert.True(t, cat.AvgVelocityPerDay.Equal(decimal.NewFromFloat(1.5)))

	assert.Equal(t, 2, report.GlobalStats.TotalProducts)
	assert.Equal(t, 1, report.GlobalStats.FastMovingProducts)
	assert.Equal(t, 1, report.GlobalStats.SlowMovingProducts)
}

func TestCompute_FiltroPorCategoria(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -10))
	seedProduct(store, "p2", "SKU-002", "c2", rotNow.AddDate(0, 0, -10))

	report, err := newEngine(store, rotation.Config{}).Compute(context.Background(), 30, rotation.Filter{CategoryID: "c2"})
	require.NoError(t, err)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "SKU-002", report.Products[0].ProductCode)
}

func TestCompute_Determinista(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -40))
	seedProduct(store, "p2", "SKU-002", "c2", rotNow.AddDate(0, 0, -80))
	seedMovement(t, store, "p1", 1, entity.MovementKindINITIAL, 50, 0, rotNow.AddDate(0, 0, -40))
	seedMovement(t, store, "p1", 2, entity.MovementKindOUT, -20, 50, rotNow.AddDate(0, 0, -3))
	seedBalance(t, store, "p1", 30, 2, rotNow.AddDate(0, 0, -3))

	engine := newEngine(store, rotation.Config{})
	first, err := engine.Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	second, err := engine.Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	assert.Equal(t, first, second, "mismo ledger y mismo reloj: reporte idéntico")
}

func TestCompute_UmbralConfigurable(t *testing.T) {
	store := memory.NewStore()
	seedProduct(store, "p1", "SKU-001", "c1", rotNow.AddDate(0, 0, -10))
	seedMovement(t, store, "p1", 1, entity.MovementKindINITIAL, 100, 0, rotNow.AddDate(0, 0, -10))
	seedMovement(t, store, "p1", 2, entity.MovementKindOUT, -40, 100, rotNow.AddDate(0, 0, -5))
	seedBalance(t, store, "p1", 60, 2, rotNow.AddDate(0, 0, -5))

	// tasa = 40/60*100 = 66.67: fast con umbral 60, slow con umbral 70.
	report, err := newEngine(store, rotation.Config{FastMovingThreshold: decimal.NewFromInt(60)}).
		Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	assert.True(t, report.Products[0].IsFastMoving)

	report, err = newEngine(store, rotation.Config{FastMovingThreshold: decimal.NewFromInt(70)}).
		Compute(context.Background(), 30, rotation.Filter{})
	require.NoError(t, err)
	assert.False(t, report.Products[0].IsFastMoving)
}
