package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas más allá de decimal).
var (
	ErrProductNotFound = errors.New("producto no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
)

// InvalidQuantityError se retorna cuando la cantidad de un movimiento no es
// positiva (IN/OUT/INITIAL) o el objetivo de un ajuste es negativo.
// Se rechaza antes de cualquier mutación.
type InvalidQuantityError struct {
	Kind     string
	Quantity decimal.Decimal
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cantidad inválida para movimiento %s: %s", e.Kind, e.Quantity)
}

// InsufficientStockError se retorna cuando una salida dejaría el stock en
// negativo. Incluye el stock disponible y la cantidad solicitada para que el
// caller pueda mostrarlos.
type InsufficientStockError struct {
	ProductID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %s, solicitado %s",
		e.ProductID, e.Available, e.Requested)
}

// ProjectionDivergenceError indica que el saldo cacheado divergió del ledger.
// Es fatal para la ruta de escritura del producto afectado: no se aceptan más
// movimientos hasta reconciliar con un replay completo. Nunca se corrige en
// silencio, porque eso podría ocultar pérdida de datos.
type ProjectionDivergenceError struct {
	ProductID string
	Sequence  int64
	Expected  decimal.Decimal // saldo previo que declara el movimiento
	Cached    decimal.Decimal // saldo que tiene la proyección
}

func (e *ProjectionDivergenceError) Error() string {
	return fmt.Sprintf("proyección divergente para producto %s en secuencia %d: movimiento declara saldo previo %s, proyección tiene %s",
		e.ProductID, e.Sequence, e.Expected, e.Cached)
}
