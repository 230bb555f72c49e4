package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/postly-app/backend/internal/middleware"
	"github.com/postly-app/backend/internal/models"
)

type postRequest struct {
	Title         string     `json:"title"`
	Content       *string    `json:"content"`
	Platform      string     `json:"platform"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

const postColumns = `id, user_id, title, content, platform, status, scheduled_date, created_at, updated_at`

// actingUser pulls the authenticated identity off the request context. The
// auth middleware guarantees it on every route that reaches here; the guard
// keeps a misconfigured route from dereferencing nil.
func actingUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Missing token")
		return nil, false
	}
	return user, true
}

func scanPost(row interface{ Scan(...any) error }, p *models.Post) error {
	return row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Platform, &p.Status, &p.ScheduledDate, &p.CreatedAt, &p.UpdatedAt)
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+postColumns+` FROM public.posts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := scanPost(rows, &p); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// GetPost is scoped by owner: a post that exists for somebody else responds
// exactly like a post that does not exist.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	id := pathVar(r, "id")

	var p models.Post
	err := scanPost(h.db.QueryRowContext(r.Context(), `
		SELECT `+postColumns+` FROM public.posts WHERE id = $1 AND user_id = $2
	`, id, user.ID), &p)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" || req.Platform == "" {
		writeError(w, http.StatusBadRequest, "Title and platform are required")
		return
	}

	status := req.Status
	if status == "" {
		status = "draft"
	}

	var p models.Post
	err := scanPost(h.db.QueryRowContext(r.Context(), `
		INSERT INTO public.posts (id, user_id, title, content, platform, status, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns+`
	`, uuid.NewString(), user.ID, req.Title, req.Content, req.Platform, status, req.ScheduledDate), &p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recountAnalytics(r.Context(), user.ID)

	writeJSON(w, http.StatusCreated, p)
}

// UpdatePost overwrites every mutable field; there is no partial merge.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	id := pathVar(r, "id")

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var p models.Post
	err := scanPost(h.db.QueryRowContext(r.Context(), `
		UPDATE public.posts
		SET title = $3, content = $4, platform = $5, status = $6, scheduled_date = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+postColumns+`
	`, id, user.ID, req.Title, req.Content, req.Platform, req.Status, req.ScheduledDate), &p)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	id := pathVar(r, "id")

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM public.posts WHERE id = $1 AND user_id = $2
	`, id, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	n, err := res.RowsAffected()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	h.recountAnalytics(r.Context(), user.ID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// recountAnalytics re-derives total_posts from the posts table after a post
// write. Best-effort: failures are logged, never surfaced, and the response
// for the triggering write is unaffected. If the user has no analytics row
// yet this is a no-op; the row is created lazily on the next analytics read.
func (h *Handler) recountAnalytics(ctx context.Context, userID string) {
	var total int
	if err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM public.posts WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		log.Printf("[Analytics] recount count for user %s: %v", userID, err)
		return
	}

	res, err := h.db.ExecContext(ctx, `
		UPDATE public.analytics SET total_posts = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, total)
	if err != nil {
		log.Printf("[Analytics] recount update for user %s: %v", userID, err)
		return
	}
	if n, err := res.RowsAffected(); err != nil {
		log.Printf("[Analytics] recount rows-affected for user %s: %v", userID, err)
	} else if n == 0 {
		log.Printf("[Analytics] no analytics row for user %s, recount skipped", userID)
	}
}
