package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newWindow(t *testing.T, max int, length time.Duration) (Window, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Window{Client: client, Prefix: "rl:", Length: length, Max: max}, mr
}

func TestTakeSlidingWindow(t *testing.T) {
	w, mr := newWindow(t, 2, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, remaining, _, err := w.Take(ctx, "terminal")
		if err != nil {
			t.Fatalf("take: %v", err)
		}
		if !allowed {
			t.Fatalf("expected hit %d to be allowed", i)
		}
		if remaining != 2-(i+1) {
			t.Fatalf("unexpected remaining: %d", remaining)
		}
	}

	allowed, remaining, _, err := w.Take(ctx, "terminal")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if allowed || remaining != 0 {
		t.Fatalf("expected third hit rejected with 0 remaining, got %v/%d", allowed, remaining)
	}

	mr.FastForward(2 * time.Second)
	allowed, _, _, err = w.Take(ctx, "terminal")
	if err != nil {
		t.Fatalf("take after window: %v", err)
	}
	if !allowed {
		t.Fatal("expected hit after window to be allowed")
	}
}

func TestTakeKeysAreIndependent(t *testing.T) {
	w, _ := newWindow(t, 1, time.Second)
	ctx := context.Background()
	if allowed, _, _, _ := w.Take(ctx, "a"); !allowed {
		t.Fatal("first key should be allowed")
	}
	if allowed, _, _, _ := w.Take(ctx, "b"); !allowed {
		t.Fatal("second key should not share the first key's window")
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	w, _ := newWindow(t, 1, time.Minute)
	handler := w.Middleware(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestNilClientDisablesLimiting(t *testing.T) {
	w := Window{Max: 1, Length: time.Minute}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if allowed, _, _, err := w.Take(ctx, "k"); err != nil || !allowed {
			t.Fatalf("hit %d: allowed=%v err=%v", i, allowed, err)
		}
	}
}
