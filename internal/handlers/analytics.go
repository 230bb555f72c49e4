package handlers

import (
	"database/sql"
	"net/http"

	"github.com/google/uuid"

	"github.com/postly-app/backend/internal/models"
)

const analyticsColumns = `id, user_id, total_posts, total_engagement, total_views, total_followers, updated_at`

type analyticsRequest struct {
	TotalPosts      int `json:"total_posts"`
	TotalEngagement int `json:"total_engagement"`
	TotalViews      int `json:"total_views"`
	TotalFollowers  int `json:"total_followers"`
}

func scanAnalytics(row interface{ Scan(...any) error }, a *models.Analytics) error {
	return row.Scan(&a.ID, &a.UserID, &a.TotalPosts, &a.TotalEngagement, &a.TotalViews, &a.TotalFollowers, &a.UpdatedAt)
}

// GetAnalytics returns the acting user's counters, creating the row with
// zero values on first read. The upsert keeps double reads from creating
// duplicates.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	var a models.Analytics
	err := scanAnalytics(h.db.QueryRowContext(r.Context(), `
		INSERT INTO public.analytics (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+analyticsColumns+`
	`, uuid.NewString(), user.ID), &a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// UpdateAnalytics is a trusting overwrite of all four counters. No bounds
// checking: callers can desynchronize total_posts from the true post count
// until the next recount fires.
func (h *Handler) UpdateAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	var req analyticsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var a models.Analytics
	err := scanAnalytics(h.db.QueryRowContext(r.Context(), `
		UPDATE public.analytics
		SET total_posts = $2, total_engagement = $3, total_views = $4, total_followers = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+analyticsColumns+`
	`, user.ID, req.TotalPosts, req.TotalEngagement, req.TotalViews, req.TotalFollowers), &a)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "Analytics not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, a)
}
