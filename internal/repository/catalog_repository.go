package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"elevex/internal/entities"
)

// CatalogRepository stores the brand and model inventory in Postgres.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListBrands returns all brands ordered by name.
func (r *CatalogRepository) ListBrands(ctx context.Context) ([]entities.Brand, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []entities.Brand
	for rows.Next() {
		var b entities.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBrand inserts a brand.
func (r *CatalogRepository) CreateBrand(ctx context.Context, b entities.Brand) error {
	if _, err := r.pool.Exec(ctx, `INSERT INTO brands (id, name) VALUES ($1, $2)`, b.ID, b.Name); err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

// DeleteBrand removes a brand and, via cascade, its models.
func (r *CatalogRepository) DeleteBrand(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	return nil
}

// ListModelsByBrand returns the models of the named brand.
func (r *CatalogRepository) ListModelsByBrand(ctx context.Context, brandName string) ([]entities.Model, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.brand_id, m.name FROM models m
		 JOIN brands b ON b.id = m.brand_id
		 WHERE b.name = $1 ORDER BY m.name`, brandName)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var out []entities.Model
	for rows.Next() {
		var m entities.Model
		if err := rows.Scan(&m.ID, &m.BrandID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateModel inserts a model under its brand.
func (r *CatalogRepository) CreateModel(ctx context.Context, m entities.Model) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO models (id, brand_id, name) VALUES ($1, $2, $3)`, m.ID, m.BrandID, m.Name); err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	return nil
}

// DeleteModel removes a model.
func (r *CatalogRepository) DeleteModel(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM models WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}
