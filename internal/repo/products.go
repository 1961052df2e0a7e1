package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a catalog entry. Mode mirrors the pricing engine's modes:
// quantity-priced products carry per-unit prices, area-priced products carry
// a price per square unit.
type Product struct {
	ID        pgtype.UUID
	Name      string
	Mode      string
	BasePrice float64
	Unit      pgtype.Text
	Active    bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// ProductVariation is one row of a product's price table.
type ProductVariation struct {
	ID        pgtype.UUID
	ProductID pgtype.UUID
	Label     string
	UnitPrice float64
	Position  int32
}

// Products gives access to the catalog.
type Products struct {
	DB DBTX
}

// Insert stores a new product.
func (r Products) Insert(ctx context.Context, p Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, name, mode, base_price, unit, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		p.ID, p.Name, p.Mode, p.BasePrice, p.Unit, p.Active)
	return err
}

// Update rewrites a product's mutable fields.
func (r Products) Update(ctx context.Context, p Product) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name = $2, mode = $3, base_price = $4, unit = $5, active = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Mode, p.BasePrice, p.Unit, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a product by id.
func (r Products) Get(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, name, mode, base_price, unit, active, created_at, updated_at
		FROM products WHERE id = $1`, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Mode, &p.BasePrice, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// List returns products, optionally restricted to active ones.
func (r Products) List(ctx context.Context, onlyActive bool, search string, limit, offset int32) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, mode, base_price, unit, active, created_at, updated_at
		FROM products
		WHERE (NOT $1 OR active)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3 OFFSET $4`, onlyActive, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Mode, &p.BasePrice, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a product and its variations.
func (r Products) Delete(ctx context.Context, id pgtype.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByName reports whether a product with the same name exists. Used by
// the backup import dedup.
func (r Products) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE lower(name) = lower($1))`, name).Scan(&exists)
	return exists, err
}

// InsertVariation stores one price table row.
func (r Products) InsertVariation(ctx context.Context, v ProductVariation) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO product_variations (id, product_id, label, unit_price, position)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.ProductID, v.Label, v.UnitPrice, v.Position)
	return err
}

// ListVariations returns a product's price table in display order.
func (r Products) ListVariations(ctx context.Context, productID pgtype.UUID) ([]ProductVariation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, label, unit_price, position
		FROM product_variations WHERE product_id = $1 ORDER BY position`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductVariation
	for rows.Next() {
		var v ProductVariation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Label, &v.UnitPrice, &v.Position); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteVariations clears a product's price table; used when replacing it.
func (r Products) DeleteVariations(ctx context.Context, productID pgtype.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM product_variations WHERE product_id = $1`, productID)
	return err
}
