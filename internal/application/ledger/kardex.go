package ledger

import (
	"context"
	"fmt"

	"github.com/inverosa/stock-ledger/internal/application/dto"
)

// Kardex arma el historial completo de un producto (orden cronológico) junto
// con el saldo actual de la proyección. Es lectura pura sobre el ledger: no
// recalcula saldos, los movimientos ya traen su par previo/nuevo anotado.
func (s *Service) Kardex(ctx context.Context, productID string) (*dto.KardexDTO, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	movements, err := s.ledger.Replay(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("replay kardex: %w", err)
	}
	balance, err := s.proj.Balance(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.KardexEntryDTO, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, dto.KardexEntryDTO{
			Sequence:        m.Sequence,
			Date:            m.Timestamp,
			Kind:            m.Kind,
			Reason:          m.Reason,
			Responsible:     m.Responsible,
			Quantity:        m.Quantity(),
			PreviousBalance: m.PreviousBalance,
			NewBalance:      m.NewBalance,
			Notes:           m.Notes,
		})
	}

	return &dto.KardexDTO{
		ProductID:    product.ID,
		ProductCode:  product.Code,
		ProductName:  product.Name,
		CurrentStock: balance,
		Movements:    entries,
	}, nil
}

// Stats devuelve estadísticas globales de movimientos (totales por tipo,
// movimientos del mes en curso, productos con actividad).
func (s *Service) Stats(ctx context.Context) (*dto.MovementStatsDTO, error) {
	stats, err := s.ledger.Stats(ctx, monthStart(s.clock.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("stats de movimientos: %w", err)
	}
	return &dto.MovementStatsDTO{
		TotalMovements:        stats.TotalMovements,
		Entries:               stats.Entries,
		Exits:                 stats.Exits,
		Adjustments:           stats.Adjustments,
		Initials:              stats.Initials,
		CurrentMonth:          stats.CurrentMonth,
		ProductsWithMovements: stats.ProductsWithMovements,
	}, nil
}
