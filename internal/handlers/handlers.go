// Package handlers contains the stateless HTTP request handlers of the
// Postly API. Every durable effect goes through the Postgres store; handlers
// keep no state across requests.
package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/postly-app/backend/internal/models"
)

// Identity is the slice of the auth service the issuance routes need.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
}

type Handler struct {
	db       *sql.DB
	identity Identity
}

func New(db *sql.DB, identity Identity) *Handler {
	return &Handler{db: db, identity: identity}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Postly backend is up and running!"))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
