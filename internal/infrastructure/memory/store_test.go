package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
	"github.com/inverosa/stock-ledger/internal/infrastructure/memory"
)

var memBase = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func appendMov(t *testing.T, store *memory.Store, productID string, seq int64, kind string, delta, prev int64, ts time.Time) *entity.Movement {
	t.Helper()
	d := decimal.NewFromInt(delta)
	p := decimal.NewFromInt(prev)
	m := &entity.Movement{
		Sequence: seq, AuditID: fmt.Sprintf("%s-%d", productID, seq), ProductID: productID, Kind: kind,
		Delta: d, PreviousBalance: p, NewBalance: p.Add(d),
		Timestamp: ts, Responsible: "Ana", Reason: "test",
	}
	require.NoError(t, store.Append(context.Background(), m))
	return m
}

func TestListWindow_IncluyeAncla(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	appendMov(t, store, "p1", 1, entity.MovementKindINITIAL, 100, 0, memBase)
	appendMov(t, store, "p1", 2, entity.MovementKindOUT, -10, 100, memBase.AddDate(0, 0, 5))
	appendMov(t, store, "p1", 3, entity.MovementKindOUT, -20, 90, memBase.AddDate(0, 0, 20))

	// Ventana desde el día 10: entra el seq 3 y el seq 2 como ancla.
	window, err := store.ListWindow(ctx, "p1", memBase.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, int64(2), window[0].Sequence, "el ancla es el último movimiento anterior a la ventana")
	assert.Equal(t, int64(3), window[1].Sequence)

	// Ventana que cubre todo: sin ancla, vienen los tres.
	window, err = store.ListWindow(ctx, "p1", memBase.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Len(t, window, 3)

	// Ventana posterior a todo: solo el ancla.
	window, err = store.ListWindow(ctx, "p1", memBase.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, int64(3), window[0].Sequence)

	// Producto sin movimientos: vacío.
	window, err = store.ListWindow(ctx, "ghost", memBase)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestList_FiltrosYOrden(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	appendMov(t, store, "p1", 1, entity.MovementKindINITIAL, 100, 0, memBase)
	appendMov(t, store, "p1", 2, entity.MovementKindOUT, -10, 100, memBase.AddDate(0, 0, 1))
	appendMov(t, store, "p2", 1, entity.MovementKindINITIAL, 50, 0, memBase.AddDate(0, 0, 2))

	// Sin filtros: más recientes primero.
	all, err := store.List(ctx, repository.MovementFilters{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p2", all[0].ProductID)

	// Por producto y por tipo.
	out, err := store.List(ctx, repository.MovementFilters{ProductID: "p1", Kind: entity.MovementKindOUT}, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].Sequence)

	// Responsable, insensible a mayúsculas.
	out, err = store.List(ctx, repository.MovementFilters{Responsible: "ANA"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	// Paginación.
	out, err = store.List(ctx, repository.MovementFilters{}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	out, err = store.List(ctx, repository.MovementFilters{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	out, err = store.List(ctx, repository.MovementFilters{}, 2, 99)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTimeline_TruncadoSemanalYMensual(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// Miércoles 2026-08-05 y viernes 2026-08-07: misma semana ISO (lunes 03).
	wed := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	fri := time.Date(2026, 8, 7, 10, 0, 0, 0, time.UTC)
	appendMov(t, store, "p1", 1, entity.MovementKindINITIAL, 100, 0, wed)
	appendMov(t, store, "p1", 2, entity.MovementKindOUT, -30, 100, fri)

	rows, err := store.Timeline(ctx, repository.BucketWeek, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, rows[0].Period)
	assert.Equal(t, monday, rows[1].Period)

	rows, err = store.Timeline(ctx, repository.BucketMonth, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), rows[0].Period)

	// |delta| siempre positivo en la agregación.
	for _, row := range rows {
		assert.False(t, row.TotalQuantity.IsNegative())
	}
}

func TestSnapshots_GetCeroYUpsert(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	snap, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentStock.IsZero())
	assert.Equal(t, int64(0), snap.LastSequence, "producto sin movimientos: snapshot en cero")

	snap.CurrentStock = decimal.NewFromInt(42)
	snap.LastSequence = 3
	require.NoError(t, store.Save(ctx, snap))

	// Mutar el original no afecta lo guardado (se almacenan copias).
	snap.CurrentStock = decimal.NewFromInt(999)
	stored, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, stored.CurrentStock.Equal(decimal.NewFromInt(42)))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalog_NotFoundYFiltros(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, err := store.GetProduct(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	store.PutProduct(&entity.Product{ID: "p1", Code: "B-002", CategoryID: "c1", CountryID: "co"})
	store.PutProduct(&entity.Product{ID: "p2", Code: "A-001", CategoryID: "c2", CountryID: "mx"})

	all, err := store.ListProducts(ctx, repository.ProductFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A-001", all[0].Code, "orden por código")

	out, err := store.ListProducts(ctx, repository.ProductFilters{CategoryID: "c1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].ID)

	out, err = store.ListProducts(ctx, repository.ProductFilters{CountryIDs: []string{"mx"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].ID)
}
