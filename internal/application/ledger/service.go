package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// Metadatos fijos del movimiento de carga inicial (se genera al registrar el
// producto en el catálogo).
const (
	initialResponsible = "Sistema"
	initialReason      = "Stock inicial del producto"
	initialNotes       = "Registro automático al crear el producto"
)

// Service es el único punto de entrada para registrar movimientos de stock.
// Es dueño de la frontera de atomicidad: por producto, la secuencia
// leer saldo → validar → append → proyectar ocurre bajo el token de
// serialización, y append + proyección se confirman en la misma unidad
// transaccional.
type Service struct {
	tx      TxRunner
	ledger  repository.LedgerRepository
	proj    *Projector
	catalog repository.CatalogRepository
	clock   domain.Clock
	locks   *productLocks
}

// NewService construye el servicio de movimientos.
func NewService(
	tx TxRunner,
	ledgerRepo repository.LedgerRepository,
	proj *Projector,
	catalog repository.CatalogRepository,
	clock domain.Clock,
) *Service {
	return &Service{
		tx:      tx,
		ledger:  ledgerRepo,
		proj:    proj,
		catalog: catalog,
		clock:   clock,
		locks:   newProductLocks(),
	}
}

// RecordInput entrada para registrar un movimiento.
// Amount es la cantidad (positiva) para IN/OUT/INITIAL, o el stock objetivo
// absoluto para ADJUSTMENT (el delta se calcula contra el saldo previo).
type RecordInput struct {
	ProductID   string
	Kind        string
	Amount      decimal.Decimal
	Responsible string
	Reason      string
	Notes       string
}

// Record valida y registra un movimiento, devolviendo el movimiento anotado
// y el nuevo saldo. Un Record rechazado deja ledger y snapshot intactos.
//
// Errores: domain.ErrProductNotFound, *domain.InvalidQuantityError,
// *domain.InsufficientStockError, *domain.ProjectionDivergenceError.
func (s *Service) Record(ctx context.Context, in RecordInput) (*entity.Movement, decimal.Decimal, error) {
	if !entity.ValidMovementKind(in.Kind) {
		return nil, decimal.Zero, domain.ErrInvalidInput
	}
	if _, err := s.catalog.GetProduct(ctx, in.ProductID); err != nil {
		return nil, decimal.Zero, err
	}

	// Token de serialización por producto: productos distintos avanzan en
	// paralelo; el mismo producto observa un orden total estricto.
	lock := s.locks.get(in.ProductID)
	lock.Lock()
	defer lock.Unlock()

	if divErr := s.proj.Halted(in.ProductID); divErr != nil {
		return nil, decimal.Zero, divErr
	}

	snap, err := s.proj.Snapshot(ctx, in.ProductID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	prev := snap.CurrentStock

	delta, err := computeDelta(in, prev)
	if err != nil {
		return nil, decimal.Zero, err
	}

	now := s.clock.Now().UTC()
	if now.Before(snap.UpdatedAt) {
		// El timestamp no puede decrecer dentro de la secuencia del producto.
		now = snap.UpdatedAt
	}

	m := &entity.Movement{
		Sequence:        snap.LastSequence + 1,
		AuditID:         uuid.New().String(),
		ProductID:       in.ProductID,
		Kind:            in.Kind,
		Delta:           delta,
		PreviousBalance: prev,
		NewBalance:      prev.Add(delta),
		Timestamp:       now,
		Responsible:     in.Responsible,
		Reason:          in.Reason,
		Notes:           in.Notes,
	}

	// Append + proyección en la misma unidad atómica; si algo falla no queda
	// visible ningún movimiento parcial.
	err = s.tx.Run(ctx, func(lr repository.LedgerRepository, sr repository.SnapshotRepository) error {
		if err := lr.Append(ctx, m); err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
		return s.proj.Apply(ctx, sr, m)
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return m, m.NewBalance, nil
}

// computeDelta valida las reglas de negocio y calcula el delta con signo.
func computeDelta(in RecordInput, prev decimal.Decimal) (decimal.Decimal, error) {
	switch in.Kind {
	case entity.MovementKindIN, entity.MovementKindINITIAL:
		if !in.Amount.IsPositive() {
			return decimal.Zero, &domain.InvalidQuantityError{Kind: in.Kind, Quantity: in.Amount}
		}
		return in.Amount, nil

	case entity.MovementKindOUT:
		if !in.Amount.IsPositive() {
			return decimal.Zero, &domain.InvalidQuantityError{Kind: in.Kind, Quantity: in.Amount}
		}
		if prev.LessThan(in.Amount) {
			return decimal.Zero, &domain.InsufficientStockError{
				ProductID: in.ProductID,
				Available: prev,
				Requested: in.Amount,
			}
		}
		return in.Amount.Neg(), nil

	case entity.MovementKindADJUSTMENT:
		// Amount es el stock objetivo absoluto; delta = objetivo - previo.
		if in.Amount.IsNegative() {
			return decimal.Zero, &domain.InvalidQuantityError{Kind: in.Kind, Quantity: in.Amount}
		}
		return in.Amount.Sub(prev), nil
	}
	return decimal.Zero, domain.ErrInvalidInput
}

// RecordInitial registra la carga inicial de un producto recién creado, con
// los metadatos de sistema que usaba el flujo de alta de productos.
func (s *Service) RecordInitial(ctx context.Context, productID string, quantity decimal.Decimal, responsible string) (*entity.Movement, error) {
	if responsible == "" {
		responsible = initialResponsible
	}
	m, _, err := s.Record(ctx, RecordInput{
		ProductID:   productID,
		Kind:        entity.MovementKindINITIAL,
		Amount:      quantity,
		Responsible: responsible,
		Reason:      initialReason,
		Notes:       initialNotes,
	})
	return m, err
}

// Balance devuelve el stock actual cacheado (0 para productos desconocidos).
func (s *Service) Balance(ctx context.Context, productID string) (decimal.Decimal, error) {
	return s.proj.Balance(ctx, productID)
}

// Replay expone el historial completo y ordenado de un producto para
// herramientas de auditoría y reconciliación.
func (s *Service) Replay(ctx context.Context, productID string) ([]*entity.Movement, error) {
	return s.ledger.Replay(ctx, productID)
}

// List devuelve movimientos filtrados, más recientes primero.
func (s *Service) List(ctx context.Context, f repository.MovementFilters, limit, offset int) ([]*entity.Movement, error) {
	return s.ledger.List(ctx, f, limit, offset)
}

// Verify compara snapshot contra replay completo sin modificar nada.
func (s *Service) Verify(ctx context.Context, productID string) error {
	return s.proj.Verify(ctx, productID)
}

// Reconcile reconstruye la proyección del producto desde el ledger. Se toma
// el token de serialización para no competir con escritores en vuelo.
func (s *Service) Reconcile(ctx context.Context, productID string) (*entity.StockSnapshot, error) {
	lock := s.locks.get(productID)
	lock.Lock()
	defer lock.Unlock()
	return s.proj.Reconcile(ctx, productID)
}

// monthStart devuelve el día 1 del mes en curso a las 00:00 UTC.
func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
