// This file implements the products_cache collection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const productColumns = "barcode, product_name, brands, image_url, nutrition, source, fetched_at"

// ProductsTable caches products looked up by barcode.
type ProductsTable struct {
	backend *Backend
}

// Get returns the cached product for barcode, or nil if there is none.
func (pt *ProductsTable) Get(ctx context.Context, barcode string) (*types.CachedProduct, error) {
	if barcode == "" {
		return nil, types.MissingID("barcode")
	}
	var p *types.CachedProduct
	err := pt.backend.view(ctx, []string{types.ProductsTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.ProductsTable,
			"SELECT "+productColumns+" FROM products_cache WHERE barcode = ?", barcode)
		if err != nil {
			return err
		}
		p, err = scanProduct(row)
		if errors.Is(err, sql.ErrNoRows) {
			p = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", barcode, err)
	}
	return p, nil
}

// GetAll returns every cached product ordered by barcode.
func (pt *ProductsTable) GetAll(ctx context.Context) ([]types.CachedProduct, error) {
	var products []types.CachedProduct
	err := pt.backend.view(ctx, []string{types.ProductsTable}, func(tx *Tx) error {
		var err error
		products, err = listProducts(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Put upserts a product by barcode after normalizing its nutrition. A zero
// FetchedAt is set to now.
func (pt *ProductsTable) Put(ctx context.Context, p *types.CachedProduct) error {
	if p == nil {
		return types.ErrInvalidData
	}
	if p.Barcode == "" {
		return types.MissingID("barcode")
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = now()
	}
	return pt.backend.update(ctx, []string{types.ProductsTable}, func(tx *Tx) error {
		return putProduct(tx, p)
	})
}

// Delete removes the cached product. A missing product is not an error.
func (pt *ProductsTable) Delete(ctx context.Context, barcode string) error {
	if barcode == "" {
		return types.MissingID("barcode")
	}
	return pt.backend.update(ctx, []string{types.ProductsTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.ProductsTable, "barcode = ?", barcode)
		return err
	})
}

func putProduct(tx *Tx, p *types.CachedProduct) error {
	p.Nutrition.Normalize()
	nutrition, err := encodeJSON(p.Nutrition)
	if err != nil {
		return err
	}
	_, err = tx.Exec(types.ProductsTable, `INSERT INTO products_cache (`+productColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(barcode) DO UPDATE SET product_name = excluded.product_name,
    brands = excluded.brands, image_url = excluded.image_url, nutrition = excluded.nutrition,
    source = excluded.source, fetched_at = excluded.fetched_at`,
		p.Barcode, p.ProductName, p.Brands, p.ImageURL, nutrition.String, p.Source, encodeTime(p.FetchedAt))
	if err != nil {
		return fmt.Errorf("persisting product %s: %w", p.Barcode, err)
	}
	return nil
}

func listProducts(tx *Tx) ([]types.CachedProduct, error) {
	rows, err := tx.Query(types.ProductsTable, "SELECT "+productColumns+" FROM products_cache ORDER BY barcode")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []types.CachedProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanProduct(s scanner) (*types.CachedProduct, error) {
	var p types.CachedProduct
	var nutrition sql.NullString
	var fetchedAt int64
	err := s.Scan(&p.Barcode, &p.ProductName, &p.Brands, &p.ImageURL, &nutrition, &p.Source, &fetchedAt)
	if err != nil {
		return nil, err
	}
	p.FetchedAt = decodeTime(fetchedAt)
	if err := decodeJSON(nutrition, &p.Nutrition); err != nil {
		return nil, fmt.Errorf("product %s nutrition: %w", p.Barcode, err)
	}
	return &p, nil
}
