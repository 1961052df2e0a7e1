package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/graficaloja/backend-pdv/internal/repo"
	"github.com/graficaloja/backend-pdv/internal/report"
)

type stubQueries struct {
	salesCalls    int
	topCalls      int
	positionCalls int
}

func (s *stubQueries) SalesByDay(_ context.Context, from, _ time.Time) ([]repo.SalesDay, error) {
	s.salesCalls++
	return []repo.SalesDay{{Day: from, OrderCount: 3, Total: 450, Paid: 300}}, nil
}

func (s *stubQueries) TopProducts(_ context.Context, _, _ time.Time, _ int32) ([]repo.TopProduct, error) {
	s.topCalls++
	return []repo.TopProduct{{Name: "Banner", Quantity: 5, Total: 900}}, nil
}

func (s *stubQueries) Position(_ context.Context, _, _ time.Time) (repo.MoneyPosition, error) {
	s.positionCalls++
	return repo.MoneyPosition{Received: 300, Outstanding: 150, Payables: 80}, nil
}

func newService(t *testing.T) (*report.Service, *stubQueries) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	queries := &stubQueries{}
	return &report.Service{Q: queries, R: rdb, TTL: time.Minute, DefaultRange: 30}, queries
}

func window() (time.Time, time.Time) {
	to := time.Now().Truncate(24 * time.Hour)
	return to.AddDate(0, 0, -7), to
}

func TestSalesCached(t *testing.T) {
	svc, queries := newService(t)
	from, to := window()
	for i := 0; i < 2; i++ {
		rows, err := svc.Sales(context.Background(), from, to)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(rows) != 1 || rows[0].Total != 450 {
			t.Fatalf("call %d: unexpected rows %+v", i, rows)
		}
	}
	if queries.salesCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.salesCalls)
	}
}

func TestTopProductsCachedPerLimit(t *testing.T) {
	svc, queries := newService(t)
	from, to := window()
	if _, err := svc.TopProducts(context.Background(), from, to, 10); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.TopProducts(context.Background(), from, to, 10); err != nil {
		t.Fatalf("cached: %v", err)
	}
	if _, err := svc.TopProducts(context.Background(), from, to, 5); err != nil {
		t.Fatalf("other limit: %v", err)
	}
	if queries.topCalls != 2 {
		t.Fatalf("expected 2 DB calls, got %d", queries.topCalls)
	}
}

func TestPositionCached(t *testing.T) {
	svc, queries := newService(t)
	from, to := window()
	position, err := svc.Position(context.Background(), from, to)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if position.Outstanding != 150 {
		t.Fatalf("outstanding = %v, want 150", position.Outstanding)
	}
	if _, err := svc.Position(context.Background(), from, to); err != nil {
		t.Fatalf("cached: %v", err)
	}
	if queries.positionCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.positionCalls)
	}
}

func TestDefaultRangeApplied(t *testing.T) {
	svc, _ := newService(t)
	from, to := svc.Range(time.Time{}, time.Time{})
	if got := to.Sub(from); got != 30*24*time.Hour {
		t.Fatalf("window = %v, want 30 days", got)
	}
}

func TestNoRedisStillServes(t *testing.T) {
	queries := &stubQueries{}
	svc := &report.Service{Q: queries, DefaultRange: 7}
	from, to := window()
	for i := 0; i < 2; i++ {
		if _, err := svc.Sales(context.Background(), from, to); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if queries.salesCalls != 2 {
		t.Fatalf("expected 2 DB calls without cache, got %d", queries.salesCalls)
	}
}
