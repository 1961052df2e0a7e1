package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Customer is a registry entry of the shop's client base.
type Customer struct {
	ID        pgtype.UUID
	Name      string
	Document  pgtype.Text
	Phone     pgtype.Text
	Email     pgtype.Text
	Address   pgtype.Text
	Notes     pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// Customers gives access to the customer registry.
type Customers struct {
	DB DBTX
}

// Insert stores a new customer.
func (r Customers) Insert(ctx context.Context, c Customer) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO customers (id, name, document, phone, email, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		c.ID, c.Name, c.Document, c.Phone, c.Email, c.Address, c.Notes)
	return err
}

// Update rewrites a customer's mutable fields.
func (r Customers) Update(ctx context.Context, c Customer) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE customers
		SET name = $2, document = $3, phone = $4, email = $5, address = $6, notes = $7, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Name, c.Document, c.Phone, c.Email, c.Address, c.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a customer by id.
func (r Customers) Get(ctx context.Context, id pgtype.UUID) (Customer, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, name, document, phone, email, address, notes, created_at, updated_at
		FROM customers WHERE id = $1`, id)
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

// List returns customers filtered by an optional case-insensitive name search.
func (r Customers) List(ctx context.Context, search string, limit, offset int32) ([]Customer, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, document, phone, email, address, notes, created_at, updated_at
		FROM customers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of customers matching the search filter.
func (r Customers) Count(ctx context.Context, search string) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT count(*) FROM customers WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`, search).Scan(&total)
	return total, err
}

// Delete removes a customer by id.
func (r Customers) Delete(ctx context.Context, id pgtype.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByNameDocument reports whether a customer with the same name and
// document number is already registered. Used by the backup import dedup.
func (r Customers) ExistsByNameDocument(ctx context.Context, name, document string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM customers
			WHERE lower(name) = lower($1) AND coalesce(document, '') = $2
		)`, name, document).Scan(&exists)
	return exists, err
}
