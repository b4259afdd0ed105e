package memory

import (
	"context"

	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner passthrough: el store en memoria no tiene transacciones. El lock
// por producto del servicio ya serializa append + snapshot, así que ningún
// lector observa el estado intermedio entre ambos.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn directamente contra el store.
func (r *TxRunner) Run(_ context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	snapshotRepo repository.SnapshotRepository,
) error) error {
	return fn(r.store, r.store)
}
