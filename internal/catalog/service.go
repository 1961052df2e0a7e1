// Package catalog manages the product registry: pricing mode, base price and
// the per-variation price table shown at the counter.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graficaloja/backend-pdv/internal/repo"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

const detailKeyPrefix = "catalog:product:"

// Service orchestrates catalog queries, DTO assembly and caching.
type Service struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

// VariationDTO is one row of a product's price table.
type VariationDTO struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	UnitPrice float64 `json:"unitPrice"`
}

// ProductDTO is the public product payload.
type ProductDTO struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Mode       string         `json:"mode"`
	BasePrice  float64        `json:"basePrice"`
	Unit       string         `json:"unit,omitempty"`
	Active     bool           `json:"active"`
	Variations []VariationDTO `json:"variations"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ProductPayload is the create/update input.
type ProductPayload struct {
	Name       string             `json:"name" validate:"required,min=2,max=160"`
	Mode       string             `json:"mode" validate:"required,oneof=quantity area"`
	BasePrice  float64            `json:"basePrice" validate:"gte=0"`
	Unit       string             `json:"unit" validate:"max=24"`
	Active     *bool              `json:"active"`
	Variations []VariationPayload `json:"variations" validate:"dive"`
}

// VariationPayload is one submitted price table row.
type VariationPayload struct {
	Label     string  `json:"label" validate:"required,max=80"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// Create stores a product together with its price table.
func (s *Service) Create(ctx context.Context, in ProductPayload) (ProductDTO, error) {
	if s == nil || s.Pool == nil {
		return ProductDTO{}, errors.New("catalog service not configured")
	}
	id := repo.NewID()
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ProductDTO{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	products := repo.Products{DB: tx}
	if err := products.Insert(ctx, repo.Product{
		ID:        id,
		Name:      in.Name,
		Mode:      in.Mode,
		BasePrice: in.BasePrice,
		Unit:      repo.ToText(in.Unit),
		Active:    active,
	}); err != nil {
		return ProductDTO{}, err
	}
	if err := insertVariations(ctx, products, id, in.Variations); err != nil {
		return ProductDTO{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ProductDTO{}, err
	}
	return s.Get(ctx, repo.UUIDString(id))
}

// Update rewrites a product and replaces its price table wholesale.
func (s *Service) Update(ctx context.Context, rawID string, in ProductPayload) (ProductDTO, error) {
	if s == nil || s.Pool == nil {
		return ProductDTO{}, errors.New("catalog service not configured")
	}
	id, err := repo.ToUUID(rawID)
	if err != nil {
		return ProductDTO{}, fmt.Errorf("product id: %w", ErrInvalidInput)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ProductDTO{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	products := repo.Products{DB: tx}
	if err := products.Update(ctx, repo.Product{
		ID:        id,
		Name:      in.Name,
		Mode:      in.Mode,
		BasePrice: in.BasePrice,
		Unit:      repo.ToText(in.Unit),
		Active:    active,
	}); err != nil {
		return ProductDTO{}, err
	}
	if err := products.DeleteVariations(ctx, id); err != nil {
		return ProductDTO{}, err
	}
	if err := insertVariations(ctx, products, id, in.Variations); err != nil {
		return ProductDTO{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ProductDTO{}, err
	}
	s.Cache.Invalidate(ctx, detailKeyPrefix+rawID)
	return s.Get(ctx, rawID)
}

// Get loads a product with its price table, served from cache when possible.
func (s *Service) Get(ctx context.Context, rawID string) (ProductDTO, error) {
	if s == nil || s.Pool == nil {
		return ProductDTO{}, errors.New("catalog service not configured")
	}
	key := detailKeyPrefix + rawID
	var cached ProductDTO
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	id, err := repo.ToUUID(rawID)
	if err != nil {
		return ProductDTO{}, fmt.Errorf("product id: %w", ErrInvalidInput)
	}
	products := repo.Products{DB: s.Pool}
	p, err := products.Get(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	variations, err := products.ListVariations(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	dto := toDTO(p, variations)
	_ = s.Cache.SetJSON(ctx, key, dto)
	return dto, nil
}

// List returns catalog products without their price tables.
func (s *Service) List(ctx context.Context, onlyActive bool, search string, limit, offset int32) ([]ProductDTO, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog service not configured")
	}
	rows, err := repo.Products{DB: s.Pool}.List(ctx, onlyActive, search, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, toDTO(p, nil))
	}
	return out, nil
}

// Delete removes a product and drops its cache entry.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog service not configured")
	}
	id, err := repo.ToUUID(rawID)
	if err != nil {
		return fmt.Errorf("product id: %w", ErrInvalidInput)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	products := repo.Products{DB: tx}
	if err := products.DeleteVariations(ctx, id); err != nil {
		return err
	}
	if err := products.Delete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, detailKeyPrefix+rawID)
	return nil
}

func insertVariations(ctx context.Context, products repo.Products, productID pgtype.UUID, in []VariationPayload) error {
	for i, v := range in {
		if err := products.InsertVariation(ctx, repo.ProductVariation{
			ID:        repo.NewID(),
			ProductID: productID,
			Label:     v.Label,
			UnitPrice: v.UnitPrice,
			Position:  int32(i),
		}); err != nil {
			return err
		}
	}
	return nil
}

func toDTO(p repo.Product, variations []repo.ProductVariation) ProductDTO {
	dto := ProductDTO{
		ID:         repo.UUIDString(p.ID),
		Name:       p.Name,
		Mode:       p.Mode,
		BasePrice:  p.BasePrice,
		Unit:       repo.TextString(p.Unit),
		Active:     p.Active,
		Variations: []VariationDTO{},
		CreatedAt:  repo.TimeValue(p.CreatedAt),
		UpdatedAt:  repo.TimeValue(p.UpdatedAt),
	}
	for _, v := range variations {
		dto.Variations = append(dto.Variations, VariationDTO{
			ID:        repo.UUIDString(v.ID),
			Label:     v.Label,
			UnitPrice: v.UnitPrice,
		})
	}
	return dto
}
