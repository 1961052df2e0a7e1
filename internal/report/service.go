// Package report serves back-office aggregates: sales per day, best sellers
// and the received-vs-outstanding money position.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Querier defines the database access required for reporting.
type Querier interface {
	SalesByDay(ctx context.Context, from, to time.Time) ([]repo.SalesDay, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]repo.TopProduct, error)
	Position(ctx context.Context, from, to time.Time) (repo.MoneyPosition, error)
}

// Service provides cached access to the reporting aggregates.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Range resolves the [from, to) window, defaulting to the configured number
// of days ending today.
func (s *Service) Range(from, to time.Time) (time.Time, time.Time) {
	days := s.DefaultRange
	if days <= 0 {
		days = 30
	}
	if to.IsZero() {
		to = s.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -days)
	}
	return from, to
}

// Sales returns per-day totals between from (inclusive) and to (exclusive).
func (s *Service) Sales(ctx context.Context, from, to time.Time) ([]repo.SalesDay, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	from, to = s.Range(from, to)
	key := cacheKey("rep", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var rows []repo.SalesDay
	if s.fromCache(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Q.SalesByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts ranks items by revenue within the window.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]repo.TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	from, to = s.Range(from, to)
	key := cacheKey("rep", "top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	var rows []repo.TopProduct
	if s.fromCache(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Q.TopProducts(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// Position sums money received in the window against the open ledger.
func (s *Service) Position(ctx context.Context, from, to time.Time) (repo.MoneyPosition, error) {
	if s == nil || s.Q == nil {
		return repo.MoneyPosition{}, fmt.Errorf("report service not configured")
	}
	from, to = s.Range(from, to)
	key := cacheKey("rep", "position", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var position repo.MoneyPosition
	if s.fromCache(ctx, key, &position) {
		return position, nil
	}
	position, err := s.Q.Position(ctx, from, to)
	if err != nil {
		return repo.MoneyPosition{}, err
	}
	s.store(ctx, key, position)
	return position, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
