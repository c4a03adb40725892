package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/macado/b2b-backend/pkg/enums"
)

type countingLimiter struct {
	counts map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func TestAuthRateLimitBlocksByEmail(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 100, 2)
	handler := AuthRateLimit(policy, limiter, nil)(okHandler())

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.RemoteAddr = "10.0.0.1:5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send("buyer@example.com"); code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := send(" Buyer@Example.com "); code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := send("buyer@example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", code)
	}
	if code := send("other@example.com"); code != http.StatusOK {
		t.Fatalf("other email should pass, got %d", code)
	}
	if limiter.counts["login:ip:10.0.0.1"] != 4 {
		t.Fatalf("expected 4 ip hits got %d", limiter.counts["login:ip:10.0.0.1"])
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), limiter, nil)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || len(limiter.counts) != 0 {
		t.Fatalf("expected passthrough, got %d with %v", resp.Code, limiter.counts)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit(limiter, 1, time.Minute, nil)(okHandler())
	ctx := WithActor(context.Background(), actorFor(enums.UserRoleAccounting, nil))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, resp.Code)
		}
	}
}
