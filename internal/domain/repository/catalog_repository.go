package repository

import (
	"context"

	"github.com/inverosa/stock-ledger/internal/domain/entity"
)

// ProductFilters filtros de catálogo para reportes y rotación.
type ProductFilters struct {
	CategoryID string
	CountryIDs []string
}

// CatalogRepository es el contrato con el catálogo de productos (colaborador
// externo). El motor solo lee; el catálogo se administra fuera de este
// sistema.
type CatalogRepository interface {
	// GetProduct falla con domain.ErrProductNotFound si el producto no existe.
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListProducts(ctx context.Context, f ProductFilters) ([]*entity.Product, error)
}
