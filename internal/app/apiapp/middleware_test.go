package apiapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maxjeon97/friender/internal/services/auth"
)

type fakeValidator struct {
	identity auth.Identity
	err      error

	gotToken string
}

func (f *fakeValidator) ValidateAccessToken(_ context.Context, raw string) (auth.Identity, error) {
	f.gotToken = raw
	return f.identity, f.err
}

func TestAuthMiddlewarePassesIdentity(t *testing.T) {
	validator := &fakeValidator{identity: auth.Identity{Username: "alice", SID: "sid-1"}}

	var got auth.Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	authMiddleware(validator)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if validator.gotToken != "good-token" {
		t.Fatalf("validator saw %q", validator.gotToken)
	}
	if !ok || got.Username != "alice" || got.SID != "sid-1" {
		t.Fatalf("identity not propagated: %+v ok=%v", got, ok)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	authMiddleware(&fakeValidator{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	validator := &fakeValidator{err: errors.New("bad token")}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a rejected token")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer expired")

	authMiddleware(validator)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}
