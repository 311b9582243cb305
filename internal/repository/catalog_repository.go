package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

// CatalogRepository defines persistence access for catalog items.
type CatalogRepository interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	SearchByText(ctx context.Context, term string, limit int) ([]domain.CatalogItem, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a Postgres-backed implementation.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	const query = `
        SELECT id, name, short_description, category, price, order_url, active, popularity
        FROM catalog_items WHERE id=$1`

	var item domain.CatalogItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.Price,
		&item.OrderURL,
		&item.Active,
		&item.Popularity,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchByText is the literal contains fallback, active items only,
// ordered by popularity.
func (r *catalogRepository) SearchByText(ctx context.Context, term string, limit int) ([]domain.CatalogItem, error) {
	const query = `
        SELECT id, name, short_description, category, price, order_url, active, popularity
        FROM catalog_items
        WHERE active
          AND (name ILIKE '%' || $1 || '%' OR short_description ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
        ORDER BY popularity DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Category,
			&item.Price,
			&item.OrderURL,
			&item.Active,
			&item.Popularity,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
