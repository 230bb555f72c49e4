package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/postly-app/backend/internal/models"
)

const platformColumns = `id, user_id, platform_name, platform_username, access_token, created_at`

type platformRequest struct {
	PlatformName     string  `json:"platform_name"`
	PlatformUsername *string `json:"platform_username"`
	AccessToken      *string `json:"access_token"`
}

func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+platformColumns+` FROM public.platforms
		WHERE user_id = $1
		ORDER BY created_at
	`, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	platforms := []models.Platform{}
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlatformName, &p.PlatformUsername, &p.AccessToken, &p.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, platforms)
}

// CreatePlatform links an external account. Duplicates per (user, platform)
// are allowed; there is no uniqueness constraint to enforce.
func (h *Handler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	var req platformRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlatformName == "" {
		writeError(w, http.StatusBadRequest, "Platform name is required")
		return
	}

	var p models.Platform
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO public.platforms (id, user_id, platform_name, platform_username, access_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+platformColumns+`
	`, uuid.NewString(), user.ID, req.PlatformName, req.PlatformUsername, req.AccessToken).
		Scan(&p.ID, &p.UserID, &p.PlatformName, &p.PlatformUsername, &p.AccessToken, &p.CreatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	id := pathVar(r, "id")

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM public.platforms WHERE id = $1 AND user_id = $2
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
		writeError(w, http.StatusNotFound, "Platform not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Platform removed successfully"})
}
