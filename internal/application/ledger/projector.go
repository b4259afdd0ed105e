package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// Projector mantiene el saldo cacheado por producto derivado del ledger.
// Es la única fuente de "stock actual"; cualquier otra copia (campo en la
// tabla de productos, saldo del kardex) queda eliminada por diseño.
//
// Apply debe invocarse exactamente una vez por movimiento, en orden de
// secuencia. Un Apply duplicado es un no-op (idempotencia vía LastSequence).
// Un Apply fuera de orden marca el producto como divergente y bloquea su ruta
// de escritura hasta Reconcile.
type Projector struct {
	snapshots repository.SnapshotRepository
	ledger    repository.LedgerRepository

	mu     sync.RWMutex
	halted map[string]*domain.ProjectionDivergenceError
}

// NewProjector construye la proyección sobre los repositorios base
// (fuera de transacción). Apply recibe el repositorio atado a la tx.
func NewProjector(snapshots repository.SnapshotRepository, ledgerRepo repository.LedgerRepository) *Projector {
	return &Projector{
		snapshots: snapshots,
		ledger:    ledgerRepo,
		halted:    make(map[string]*domain.ProjectionDivergenceError),
	}
}

// Balance devuelve el stock actual cacheado; 0 para productos sin movimientos.
func (p *Projector) Balance(ctx context.Context, productID string) (decimal.Decimal, error) {
	snap, err := p.snapshots.Get(ctx, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("leer snapshot: %w", err)
	}
	return snap.CurrentStock, nil
}

// Snapshot devuelve el snapshot completo (saldo + última secuencia aplicada).
func (p *Projector) Snapshot(ctx context.Context, productID string) (*entity.StockSnapshot, error) {
	return p.snapshots.Get(ctx, productID)
}

// Halted devuelve el error de divergencia activo del producto, o nil si su
// ruta de escritura está sana.
func (p *Projector) Halted(productID string) *domain.ProjectionDivergenceError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.halted[productID]
}

// Apply aplica un movimiento al snapshot usando el repositorio dado
// (normalmente atado a la misma transacción que el Append).
//
//   - movimiento ya aplicado (Sequence <= LastSequence): no-op
//   - siguiente en la cadena y saldo previo coincide: actualiza el snapshot
//   - cualquier otro caso: ProjectionDivergenceError, producto bloqueado
func (p *Projector) Apply(ctx context.Context, snapshots repository.SnapshotRepository, m *entity.Movement) error {
	snap, err := snapshots.Get(ctx, m.ProductID)
	if err != nil {
		return fmt.Errorf("leer snapshot: %w", err)
	}

	if m.Sequence <= snap.LastSequence {
		// Entrega duplicada; el movimiento ya está proyectado.
		return nil
	}

	if m.Sequence != snap.LastSequence+1 || !m.PreviousBalance.Equal(snap.CurrentStock) {
		divErr := &domain.ProjectionDivergenceError{
			ProductID: m.ProductID,
			Sequence:  m.Sequence,
			Expected:  m.PreviousBalance,
			Cached:    snap.CurrentStock,
		}
		p.halt(divErr)
		return divErr
	}

	snap.CurrentStock = m.NewBalance
	snap.LastSequence = m.Sequence
	snap.UpdatedAt = m.Timestamp
	if err := snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("guardar snapshot: %w", err)
	}
	return nil
}

// Verify replaya el ledger completo del producto y lo compara contra el
// snapshot cacheado (ley de round-trip). Si diverge, bloquea la ruta de
// escritura y devuelve el error; nunca corrige en silencio.
func (p *Projector) Verify(ctx context.Context, productID string) error {
	movements, err := p.ledger.Replay(ctx, productID)
	if err != nil {
		return fmt.Errorf("replay ledger: %w", err)
	}
	replayed, err := foldChain(productID, movements)
	if err != nil {
		return err
	}
	snap, err := p.snapshots.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("leer snapshot: %w", err)
	}
	if snap.LastSequence != replayed.LastSequence || !snap.CurrentStock.Equal(replayed.CurrentStock) {
		divErr := &domain.ProjectionDivergenceError{
			ProductID: productID,
			Sequence:  replayed.LastSequence,
			Expected:  replayed.CurrentStock,
			Cached:    snap.CurrentStock,
		}
		p.halt(divErr)
		return divErr
	}
	return nil
}

// Reconcile reconstruye el snapshot desde el ledger (replay completo) y
// desbloquea la ruta de escritura del producto. Si la cadena del propio
// ledger está rota, el producto sigue bloqueado y se devuelve el error.
func (p *Projector) Reconcile(ctx context.Context, productID string) (*entity.StockSnapshot, error) {
	movements, err := p.ledger.Replay(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}
	snap, err := foldChain(productID, movements)
	if err != nil {
		return nil, err
	}
	if err := p.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("guardar snapshot reconciliado: %w", err)
	}

	p.mu.Lock()
	delete(p.halted, productID)
	p.mu.Unlock()

	log.Info().
		Str("product_id", productID).
		Int64("last_sequence", snap.LastSequence).
		Str("current_stock", snap.CurrentStock.String()).
		Msg("proyección reconciliada desde el ledger")
	return snap, nil
}

func (p *Projector) halt(divErr *domain.ProjectionDivergenceError) {
	p.mu.Lock()
	p.halted[divErr.ProductID] = divErr
	p.mu.Unlock()

	log.Error().
		Str("product_id", divErr.ProductID).
		Int64("sequence", divErr.Sequence).
		Str("expected", divErr.Expected.String()).
		Str("cached", divErr.Cached.String()).
		Msg("divergencia de proyección detectada; escrituras bloqueadas hasta reconciliar")
}

// foldChain replaya la secuencia verificando los invariantes de cadena:
// saldo previo del movimiento n = saldo nuevo del n-1 (el primero parte de 0),
// NewBalance = PreviousBalance + Delta, y NewBalance >= 0.
func foldChain(productID string, movements []*entity.Movement) (*entity.StockSnapshot, error) {
	snap := &entity.StockSnapshot{ProductID: productID, CurrentStock: decimal.Zero}
	for _, m := range movements {
		if m.Sequence != snap.LastSequence+1 || !m.PreviousBalance.Equal(snap.CurrentStock) {
			return nil, &domain.ProjectionDivergenceError{
				ProductID: productID,
				Sequence:  m.Sequence,
				Expected:  m.PreviousBalance,
				Cached:    snap.CurrentStock,
			}
		}
		expected := m.PreviousBalance.Add(m.Delta)
		if !m.NewBalance.Equal(expected) || m.NewBalance.IsNegative() {
			return nil, &domain.ProjectionDivergenceError{
				ProductID: productID,
				Sequence:  m.Sequence,
				Expected:  expected,
				Cached:    m.NewBalance,
			}
		}
		snap.CurrentStock = m.NewBalance
		snap.LastSequence = m.Sequence
		snap.UpdatedAt = m.Timestamp
	}
	return snap, nil
}
