package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/postly-app/backend/internal/models"
)

type stubVerifier struct {
	user *models.User
	err  error
	seen string
}

func (v *stubVerifier) VerifyToken(token string) (*models.User, error) {
	v.seen = token
	return v.user, v.err
}

func passthrough(t *testing.T, captured **models.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_MissingHeader(t *testing.T) {
	var got *models.User
	a := &Auth{Verifier: &stubVerifier{}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)

	a.Middleware(passthrough(t, &got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	var out map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode json: %v body=%q", err, rr.Body.String())
	}
	if out["error"] != "Missing token" {
		t.Fatalf("expected Missing token got %q", out["error"])
	}
	if got != nil {
		t.Fatalf("handler should not run, got user %#v", got)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	var got *models.User
	a := &Auth{Verifier: &stubVerifier{}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Token abc123")

	a.Middleware(passthrough(t, &got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestAuth_RejectedToken(t *testing.T) {
	var got *models.User
	v := &stubVerifier{err: errors.New("expired")}
	a := &Auth{Verifier: v}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	a.Middleware(passthrough(t, &got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if v.seen != "bad-token" {
		t.Fatalf("verifier saw %q", v.seen)
	}
	var out map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out["error"] != "Invalid token" {
		t.Fatalf("expected Invalid token got %q", out["error"])
	}
}

func TestAuth_ValidToken(t *testing.T) {
	var got *models.User
	v := &stubVerifier{user: &models.User{ID: "u1", Email: "a@b.com"}}
	a := &Auth{Verifier: v}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	a.Middleware(passthrough(t, &got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected context user u1, got %#v", got)
	}
}

func TestUserFrom_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u := UserFrom(req.Context()); u != nil {
		t.Fatalf("expected nil user, got %#v", u)
	}
}
