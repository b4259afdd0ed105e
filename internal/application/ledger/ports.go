package ledger

import (
	"context"

	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función con el ledger y los snapshots atados a la
// misma unidad atómica de persistencia. En PostgreSQL/SQLite es una
// transacción con Commit/Rollback; en memoria es un passthrough (la
// serialización por producto ya garantiza la atomicidad observable).
//
// Garantiza que append al ledger y actualización de la proyección se
// confirman juntos o no se confirma ninguno: nunca queda visible un
// movimiento parcial.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		snapshotRepo repository.SnapshotRepository,
	) error) error
}
