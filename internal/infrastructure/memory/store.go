// Package memory implementa el ledger, los snapshots y el catálogo en
// memoria. Es el driver de tests y de desarrollo local; la semántica
// observable (orden, ventanas, filtros) es idéntica a la de los drivers SQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LedgerRepository   = (*Store)(nil)
	_ repository.SnapshotRepository = (*Store)(nil)
	_ repository.CatalogRepository  = (*Store)(nil)
)

// Store contenedor en memoria protegido por RWMutex. Los movimientos se
// guardan por producto en orden de secuencia; nunca se modifican después de
// anotados (se devuelven copias).
type Store struct {
	mu        sync.RWMutex
	movements map[string][]*entity.Movement
	snapshots map[string]*entity.StockSnapshot
	products  map[string]*entity.Product
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		movements: make(map[string][]*entity.Movement),
		snapshots: make(map[string]*entity.StockSnapshot),
		products:  make(map[string]*entity.Product),
	}
}

// ── LedgerRepository ──────────────────────────────────────────────────────────

// Append anota un movimiento inmutable al final de la secuencia del producto.
func (s *Store) Append(_ context.Context, m *entity.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *m
	s.movements[m.ProductID] = append(s.movements[m.ProductID], &clone)
	return nil
}

// Replay devuelve el historial completo y ordenado del producto.
func (s *Store) Replay(_ context.Context, productID string) ([]*entity.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.movements[productID]), nil
}

// ListWindow devuelve los movimientos con Timestamp >= since más el
// inmediatamente anterior (ancla del saldo de partida).
func (s *Store) ListWindow(_ context.Context, productID string, since time.Time) ([]*entity.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.movements[productID]

	start := len(seq)
	for i, m := range seq {
		if !m.Timestamp.Before(since) {
			start = i
			break
		}
	}
	if start > 0 {
		start-- // ancla: el último movimiento estrictamente anterior a la ventana
	}
	return cloneAll(seq[start:]), nil
}

// List devuelve movimientos filtrados, más recientes primero.
func (s *Store) List(_ context.Context, f repository.MovementFilters, limit, offset int) ([]*entity.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*entity.Movement
	for _, seq := range s.movements {
		for _, m := range seq {
			if matchesFilters(m, f) {
				all = append(all, m)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].Sequence > all[j].Sequence
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return cloneAll(all[offset:end]), nil
}

func matchesFilters(m *entity.Movement, f repository.MovementFilters) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if len(f.ProductIDs) > 0 {
		found := false
		for _, id := range f.ProductIDs {
			if m.ProductID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if f.From != nil && m.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Timestamp.After(*f.To) {
		return false
	}
	if f.Responsible != "" && !strings.Contains(strings.ToLower(m.Responsible), strings.ToLower(f.Responsible)) {
		return false
	}
	return true
}

// Timeline agrega |delta| y conteo por período y tipo.
func (s *Store) Timeline(_ context.Context, bucket string, from, to *time.Time) ([]repository.TimelineRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		period time.Time
		kind   string
	}
	acc := make(map[key]*repository.TimelineRow)
	for _, seq := range s.movements {
		for _, m := range seq {
			if from != nil && m.Timestamp.Before(*from) {
				continue
			}
			if to != nil && m.Timestamp.After(*to) {
				continue
			}
			k := key{period: truncatePeriod(bucket, m.Timestamp), kind: m.Kind}
			row := acc[k]
			if row == nil {
				row = &repository.TimelineRow{Period: k.period, Kind: k.kind, TotalQuantity: decimal.Zero}
				acc[k] = row
			}
			row.TotalQuantity = row.TotalQuantity.Add(m.Delta.Abs())
			row.Movements++
		}
	}

	rows := make([]repository.TimelineRow, 0, len(acc))
	for _, row := range acc {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Period.Equal(rows[j].Period) {
			return rows[i].Period.Before(rows[j].Period)
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows, nil
}

// truncatePeriod normaliza un timestamp al inicio de su período UTC.
// Las semanas empiezan en lunes (ISO).
func truncatePeriod(bucket string, t time.Time) time.Time {
	t = t.UTC()
	switch bucket {
	case repository.BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case repository.BucketWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, 1-weekday)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Summary suma cantidades por tipo dentro del filtro.
func (s *Store) Summary(_ context.Context, f repository.MovementFilters) (*repository.KindTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &repository.KindTotals{
		Entries:     decimal.Zero,
		Exits:       decimal.Zero,
		Adjustments: decimal.Zero,
	}
	for _, seq := range s.movements {
		for _, m := range seq {
			if !matchesFilters(m, f) {
				continue
			}
			switch m.Kind {
			case entity.MovementKindIN, entity.MovementKindINITIAL:
				totals.Entries = totals.Entries.Add(m.Delta)
				totals.EntryCount++
			case entity.MovementKindOUT:
				totals.Exits = totals.Exits.Add(m.Delta.Abs())
				totals.ExitCount++
			case entity.MovementKindADJUSTMENT:
				totals.Adjustments = totals.Adjustments.Add(m.Delta.Abs())
				totals.AdjustmentCount++
			}
		}
	}
	return totals, nil
}

// Stats estadísticas globales de movimientos.
func (s *Store) Stats(_ context.Context, monthStart time.Time) (*repository.MovementStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &repository.MovementStats{}
	for productID, seq := range s.movements {
		if len(seq) > 0 {
			stats.ProductsWithMovements++
		}
		_ = productID
		for _, m := range seq {
			stats.TotalMovements++
			switch m.Kind {
			case entity.MovementKindIN:
				stats.Entries++
			case entity.MovementKindOUT:
				stats.Exits++
			case entity.MovementKindADJUSTMENT:
				stats.Adjustments++
			case entity.MovementKindINITIAL:
				stats.Initials++
			}
			if !m.Timestamp.Before(monthStart) {
				stats.CurrentMonth++
			}
		}
	}
	return stats, nil
}

// ── SnapshotRepository ────────────────────────────────────────────────────────

// Get devuelve el snapshot del producto, o uno en cero si no existe.
func (s *Store) Get(_ context.Context, productID string) (*entity.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.snapshots[productID]; ok {
		clone := *snap
		return &clone, nil
	}
	return &entity.StockSnapshot{ProductID: productID, CurrentStock: decimal.Zero}, nil
}

// Save inserta o reemplaza el snapshot.
func (s *Store) Save(_ context.Context, snap *entity.StockSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *snap
	s.snapshots[snap.ProductID] = &clone
	return nil
}

// All devuelve todos los snapshots.
func (s *Store) All(_ context.Context) ([]*entity.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.StockSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		clone := *snap
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// ── CatalogRepository ─────────────────────────────────────────────────────────

// GetProduct falla con domain.ErrProductNotFound si el producto no existe.
func (s *Store) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

// ListProducts filtra por categoría y países, ordenado por código.
func (s *Store) ListProducts(_ context.Context, f repository.ProductFilters) ([]*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entity.Product
	for _, p := range s.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if len(f.CountryIDs) > 0 {
			found := false
			for _, id := range f.CountryIDs {
				if p.CountryID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// PutProduct registra un producto en el catálogo en memoria (seed de
// desarrollo y tests; en producción el catálogo vive fuera de este sistema).
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.products[p.ID] = &clone
}

func cloneAll(movements []*entity.Movement) []*entity.Movement {
	out := make([]*entity.Movement, 0, len(movements))
	for _, m := range movements {
		clone := *m
		out = append(out, &clone)
	}
	return out
}
