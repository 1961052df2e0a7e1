package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Supplier is a registry entry for material and service providers.
type Supplier struct {
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

// Suppliers gives access to the supplier registry.
type Suppliers struct {
	DB DBTX
}

// Insert stores a new supplier.
func (r Suppliers) Insert(ctx context.Context, s Supplier) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO suppliers (id, name, document, phone, email, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		s.ID, s.Name, s.Document, s.Phone, s.Email, s.Address, s.Notes)
	return err
}

// Update rewrites a supplier's mutable fields.
func (r Suppliers) Update(ctx context.Context, s Supplier) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, document = $3, phone = $4, email = $5, address = $6, notes = $7, updated_at = now()
		WHERE id = $1`,
		s.ID, s.Name, s.Document, s.Phone, s.Email, s.Address, s.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a supplier by id.
func (r Suppliers) Get(ctx context.Context, id pgtype.UUID) (Supplier, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, name, document, phone, email, address, notes, created_at, updated_at
		FROM suppliers WHERE id = $1`, id)
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Document, &s.Phone, &s.Email, &s.Address, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

// List returns suppliers filtered by an optional name search.
func (r Suppliers) List(ctx context.Context, search string, limit, offset int32) ([]Supplier, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, document, phone, email, address, notes, created_at, updated_at
		FROM suppliers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Document, &s.Phone, &s.Email, &s.Address, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a supplier by id.
func (r Suppliers) Delete(ctx context.Context, id pgtype.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByNameDocument reports whether a supplier with the same name and
// document number is already registered. Used by the backup import dedup.
func (r Suppliers) ExistsByNameDocument(ctx context.Context, name, document string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM suppliers
			WHERE lower(name) = lower($1) AND coalesce(document, '') = $2
		)`, name, document).Scan(&exists)
	return exists, err
}
