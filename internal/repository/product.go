package repository

import (
	"context"
	"fmt"

	"biedronka/scraper/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository mirrors emitted product records into Postgres for ad hoc
// querying. The NDJSON log stays the canonical output; the mirror is
// optional and best-effort.
type ProductRepository interface {
	SaveProduct(ctx context.Context, record *domain.ProductRecord) error
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r *productRepository) SaveProduct(ctx context.Context, record *domain.ProductRecord) error {
	query := `
	INSERT INTO products (path, data)
	VALUES ($1, $2)
	ON CONFLICT (path)
	DO UPDATE SET data = $2`
	_, err := r.db.Exec(ctx, query, record.AbsolutePath, record)
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", record.AbsolutePath, err)
	}

	return nil
}
