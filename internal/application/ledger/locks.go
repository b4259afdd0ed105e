package ledger

import "sync"

// productLocks es el token de serialización por producto: un mutex por
// product_id, creado bajo demanda. Es el único recurso mutable compartido de
// la ruta de escritura; se adquiere antes de leer el saldo previo y se libera
// después de confirmar append + proyección, para que "verificar stock y luego
// anotar" nunca se parta entre dos saldos observados distintos.
//
// Productos distintos usan mutexes distintos y escriben en paralelo.
type productLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[string]*sync.Mutex)}
}

// get devuelve el mutex del producto, creándolo si no existe.
func (p *productLocks) get(productID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[productID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[productID] = l
	}
	return l
}
