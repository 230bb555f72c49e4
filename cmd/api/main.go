package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"

	"github.com/postly-app/backend/internal/auth"
	"github.com/postly-app/backend/internal/handlers"
	"github.com/postly-app/backend/internal/middleware"
)

// Issuance routes are unauthenticated, so they get a per-IP budget.
const (
	authRatePerSecond = 1
	authRateBurst     = 10
)

func main() {
	if err := run(defaultDeps()); err != nil {
		log.Fatal(err)
	}
}

// deps holds the process-boundary hooks so run can be exercised in tests
// without a real database or listener.
type deps struct {
	loadEnv        func(...string) error
	getenv         func(string) string
	openDB         func(driverName, dataSourceName string) (*sql.DB, error)
	migrateUp      func(*sql.DB) error
	listenAndServe func(*http.Server) error
	notify         func(chan<- os.Signal, ...os.Signal)
	stopCh         chan os.Signal
}

func defaultDeps() deps {
	return deps{
		loadEnv:        godotenv.Load,
		getenv:         os.Getenv,
		openDB:         sql.Open,
		migrateUp:      migrateUp,
		listenAndServe: func(srv *http.Server) error { return srv.ListenAndServe() },
		notify:         signal.Notify,
	}
}

func resolvePort(getenv func(string) string) string {
	if p := getenv("PORT"); p != "" {
		return p
	}
	return "5000"
}

// resolveTrustProxy reports whether X-Forwarded-For should be believed for
// rate limiting. Off unless the deployment fronts the server with a proxy
// that sets the header.
func resolveTrustProxy(getenv func(string) string) bool {
	return getenv("TRUST_PROXY") == "true"
}

func resolveTokenTTL(getenv func(string) string) time.Duration {
	const def = time.Hour
	v := getenv("TOKEN_TTL_SECONDS")
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

func migrateUp(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrateUp: nil database handle")
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("Failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://db/migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("Failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("Database migration failed: %w", err)
	}
	return nil
}

func buildRouter(h *handlers.Handler, bearer *middleware.Auth, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoutes(r, h, bearer, limiter)
	return r
}

func run(d deps) error {
	if d.loadEnv != nil {
		_ = d.loadEnv()
	}

	databaseURL := ""
	jwtSecret := ""
	if d.getenv != nil {
		databaseURL = d.getenv("DATABASE_URL")
		jwtSecret = d.getenv("JWT_SECRET")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if d.openDB == nil {
		return fmt.Errorf("openDB dependency is required")
	}
	db, err := d.openDB("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("Failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("Failed to ping database: %w", err)
	}

	if d.migrateUp != nil {
		if err := d.migrateUp(db); err != nil {
			return err
		}
	}
	log.Println("Database is up-to-date")

	identity := auth.New(db, []byte(jwtSecret), resolveTokenTTL(d.getenv))
	h := handlers.New(db, identity)
	bearer := &middleware.Auth{Verifier: identity}
	limiter := middleware.NewRateLimiter(authRatePerSecond, authRateBurst)
	limiter.TrustForwardedFor = resolveTrustProxy(d.getenv)
	router := buildRouter(h, bearer, limiter)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	port := resolvePort(d.getenv)
	srv := &http.Server{
		Handler:      c.Handler(router),
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	stop := d.stopCh
	if stop == nil {
		stop = make(chan os.Signal, 1)
	}
	if d.notify != nil {
		d.notify(stop, os.Interrupt, syscall.SIGTERM)
	}

	go func() {
		<-stop
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Postly backend listening on port %s", port)
	if d.listenAndServe == nil {
		return fmt.Errorf("listenAndServe dependency is required")
	}
	if err := d.listenAndServe(srv); err != nil && err != http.ErrServerClosed {
		return err
	}
	log.Println("Server stopped")
	return nil
}
