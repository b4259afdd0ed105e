package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMovement(productID string, seq int64, kind string, delta, prev int64, ts time.Time) *entity.Movement {
	d := decimal.NewFromInt(delta)
	p := decimal.NewFromInt(prev)
	return &entity.Movement{
		Sequence: seq, AuditID: fmt.Sprintf("%s-%d", productID, seq), ProductID: productID, Kind: kind,
		Delta: d, PreviousBalance: p, NewBalance: p.Add(d),
		Timestamp: ts, Responsible: "Ana", Reason: "test", Notes: "nota",
	}
}

func TestAppendReplay_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	repo := NewLedgerRepository(store.DB())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)

	m1 := testMovement("p1", 1, entity.MovementKindINITIAL, 100, 0, base)
	m2 := testMovement("p1", 2, entity.MovementKindOUT, -30, 100, base.Add(time.Hour))
	require.NoError(t, repo.Append(ctx, m1))
	require.NoError(t, repo.Append(ctx, m2))

	got, err := repo.Replay(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Los montos TEXT vuelven con precisión exacta y el timestamp en UTC.
	assert.True(t, got[0].Delta.Equal(decimal.NewFromInt(100)))
	assert.True(t, got[1].Delta.Equal(decimal.NewFromInt(-30)))
	assert.True(t, got[1].PreviousBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Equal(t, "nota", got[0].Notes)
}

func TestAppend_RechazaSecuenciaDuplicada(t *testing.T) {
	store := newTestStore(t)
	repo := NewLedgerRepository(store.DB())
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Append(ctx, testMovement("p1", 1, entity.MovementKindINITIAL, 100, 0, base)))

	// Reescribir la posición 1 viola la PK (product_id, sequence).
	dup := testMovement("p1", 1, entity.MovementKindIN, 5, 100, base.Add(time.Hour))
	dup.AuditID = "otro-audit"
	err := repo.Append(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ya anotada")
}

func TestListWindow_AnclaYOrden(t *testing.T) {
	store := newTestStore(t)
	repo := NewLedgerRepository(store.DB())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, testMovement("p1", 1, entity.MovementKindINITIAL, 100, 0, base)))
	require.NoError(t, repo.Append(ctx, testMovement("p1", 2, entity.MovementKindOUT, -10, 100, base.AddDate(0, 0, 5))))
	require.NoError(t, repo.Append(ctx, testMovement("p1", 3, entity.MovementKindOUT, -20, 90, base.AddDate(0, 0, 20))))

	window, err := repo.ListWindow(ctx, "p1", base.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, int64(2), window[0].Sequence, "ancla anterior a la ventana")
	assert.Equal(t, int64(3), window[1].Sequence)
}

func TestSnapshots_UpsertYCero(t *testing.T) {
	store := newTestStore(t)
	repo := NewSnapshotRepository(store.DB())
	ctx := context.Background()

	snap, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentStock.IsZero())
	assert.Equal(t, int64(0), snap.LastSequence)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &entity.StockSnapshot{
		ProductID: "p1", CurrentStock: decimal.NewFromInt(70), LastSequence: 2, UpdatedAt: now,
	}))
	require.NoError(t, repo.Save(ctx, &entity.StockSnapshot{
		ProductID: "p1", CurrentStock: decimal.NewFromInt(55), LastSequence: 3, UpdatedAt: now.Add(time.Hour),
	}))

	snap, err = repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentStock.Equal(decimal.NewFromInt(55)), "el upsert reemplaza el snapshot anterior")
	assert.Equal(t, int64(3), snap.LastSequence)
}

func TestTxRunner_RollbackDeshaceTodo(t *testing.T) {
	store := newTestStore(t)
	runner := NewTxRunner(store.DB())
	ctx := context.Background()
	base := time.Now().UTC()

	boom := errors.New("boom")
	err := runner.Run(ctx, func(lr repository.LedgerRepository, sr repository.SnapshotRepository) error {
		if err := lr.Append(ctx, testMovement("p1", 1, entity.MovementKindINITIAL, 100, 0, base)); err != nil {
			return err
		}
		if err := sr.Save(ctx, &entity.StockSnapshot{
			ProductID: "p1", CurrentStock: decimal.NewFromInt(100), LastSequence: 1, UpdatedAt: base,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Rollback: ni el movimiento ni el snapshot quedaron visibles.
	movements, err := NewLedgerRepository(store.DB()).Replay(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, movements)
	snap, err := NewSnapshotRepository(store.DB()).Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentStock.IsZero())
}

func TestTimeline_BucketsPorDia(t *testing.T) {
	store := newTestStore(t)
	repo := NewLedgerRepository(store.DB())
	ctx := context.Background()

	day1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, testMovement("p1", 1, entity.MovementKindINITIAL, 100, 0, day1)))
	require.NoError(t, repo.Append(ctx, testMovement("p1", 2, entity.MovementKindOUT, -30, 100, day1.Add(time.Hour))))

	rows, err := repo.Timeline(ctx, repository.BucketDay, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), rows[0].Period)

	_, err = repo.Timeline(ctx, "hour", nil, nil)
	assert.Error(t, err)
}
