package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/entity"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo vista de solo lectura del catálogo de productos local.
type CatalogRepo struct {
	q querier
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(q querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

const productColumns = `
	p.id, p.code, p.name,
	p.category_id, COALESCE(c.name, ''),
	p.country_id, COALESCE(co.name, ''),
	p.registration_date`

// GetProduct falla con domain.ErrProductNotFound si el producto no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN countries co ON co.id = p.country_id
		WHERE p.id = ?`
	var p entity.Product
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Code, &p.Name,
		&p.CategoryID, &p.CategoryName,
		&p.CountryID, &p.CountryName,
		&p.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("get producto: %w", err)
	}
	p.RegistrationDate = p.RegistrationDate.UTC()
	return &p, nil
}

// ListProducts filtra por categoría y países, ordenado por código.
func (r *CatalogRepo) ListProducts(ctx context.Context, f repository.ProductFilters) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN countries co ON co.id = p.country_id
		WHERE 1=1`
	var args []any
	if f.CategoryID != "" {
		query += " AND p.category_id = ?"
		args = append(args, f.CategoryID)
	}
	if len(f.CountryIDs) > 0 {
		query += " AND p.country_id IN (?" + strings.Repeat(", ?", len(f.CountryIDs)-1) + ")"
		for _, id := range f.CountryIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY p.code"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list productos: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name,
			&p.CategoryID, &p.CategoryName,
			&p.CountryID, &p.CountryName,
			&p.RegistrationDate); err != nil {
			return nil, fmt.Errorf("scan producto: %w", err)
		}
		p.RegistrationDate = p.RegistrationDate.UTC()
		list = append(list, &p)
	}
	return list, rows.Err()
}
