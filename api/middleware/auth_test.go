package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/macado/b2b-backend/pkg/auth"
	"github.com/macado/b2b-backend/pkg/config"
	"github.com/macado/b2b-backend/pkg/enums"
)

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "maca-test", ExpirationMinutes: 60}

func mintTestToken(t *testing.T, role enums.UserRole, customerID *uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:     uuid.New(),
		Role:       role,
		CustomerID: customerID,
		JTI:        uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	for _, header := range []string{"", "Bearer ", "Bearer invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthSeedsActor(t *testing.T) {
	customerID := uuid.New()
	token := mintTestToken(t, enums.UserRoleCustomer, &customerID)

	var captured struct {
		role     string
		customer string
		session  string
	}
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.role = RoleFromContext(r.Context())
		captured.customer = CustomerIDFromContext(r.Context())
		actor, _ := ActorFromContext(r.Context())
		captured.session = actor.SessionID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.role != string(enums.UserRoleCustomer) {
		t.Fatalf("expected customer role got %s", captured.role)
	}
	if captured.customer != customerID.String() {
		t.Fatalf("expected customer %s got %s", customerID, captured.customer)
	}
	if captured.session == "" {
		t.Fatal("expected session id on actor")
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, enums.UserRoleAdmin, nil)

	cases := []struct {
		verifier stubSessionVerifier
		want     int
	}{
		{verifier: stubSessionVerifier{ok: false}, want: http.StatusUnauthorized},
		{verifier: stubSessionVerifier{err: errors.New("redis down")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		handler := Auth(testJWT, tc.verifier, nil)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("expected %d got %d", tc.want, resp.Code)
		}
	}
}

func TestRequireRoles(t *testing.T) {
	handler := RequireStaff(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor got %d", resp.Code)
	}

	customerID := uuid.New()
	cases := map[enums.UserRole]int{
		enums.UserRoleCustomer:   http.StatusForbidden,
		enums.UserRoleAccounting: http.StatusOK,
		enums.UserRoleAdmin:      http.StatusOK,
		enums.UserRolePresident:  http.StatusOK,
	}
	for role, want := range cases {
		actorCtx := WithActor(context.Background(), actorFor(role, &customerID))
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(actorCtx)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("role %s: expected %d got %d", role, want, resp.Code)
		}
	}
}
