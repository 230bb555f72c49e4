package handlers

import (
	"github.com/gorilla/mux"

	"github.com/postly-app/backend/internal/middleware"
)

// RegisterRoutes wires the full route table. The issuance routes sit behind
// the rate limiter only; everything else under /api requires a bearer token.
func RegisterRoutes(r *mux.Router, h *Handler, bearer *middleware.Auth, limiter *middleware.RateLimiter) {
	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	issue := r.PathPrefix("/api/auth").Subrouter()
	if limiter != nil {
		issue.Use(limiter.Middleware)
	}
	issue.HandleFunc("/login", h.Login).Methods("POST")
	issue.HandleFunc("/register", h.Register).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(bearer.Middleware)

	api.HandleFunc("/posts", h.ListPosts).Methods("GET")
	api.HandleFunc("/posts", h.CreatePost).Methods("POST")
	api.HandleFunc("/posts/{id}", h.GetPost).Methods("GET")
	api.HandleFunc("/posts/{id}", h.UpdatePost).Methods("PUT")
	api.HandleFunc("/posts/{id}", h.DeletePost).Methods("DELETE")

	api.HandleFunc("/analytics", h.GetAnalytics).Methods("GET")
	api.HandleFunc("/analytics", h.UpdateAnalytics).Methods("PUT")

	api.HandleFunc("/platforms", h.ListPlatforms).Methods("GET")
	api.HandleFunc("/platforms", h.CreatePlatform).Methods("POST")
	api.HandleFunc("/platforms/{id}", h.DeletePlatform).Methods("DELETE")
}
