// Package auth implements the identity side of the backend: account
// creation, password sign-in, and bearer-token mint/verify. Durable identity
// state lives in the users table; the service itself is stateless and safe
// for concurrent use.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/postly-app/backend/internal/models"
)

// Error messages follow the hosted-provider wording the frontend already
// expects.
var (
	ErrMissingCredentials = errors.New("Email and password are required")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrDuplicateEmail     = errors.New("User already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrInvalidToken       = errors.New("Invalid token")
)

const minPasswordLen = 6

// uniqueViolation is the Postgres error code for duplicate-key inserts.
const uniqueViolation = "23505"

type Service struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
}

func New(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{db: db, secret: secret, ttl: ttl}
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignUp registers a new account and returns a live session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO public.users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, created_at
	`, uuid.NewString(), email, string(hash)).
		Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return s.newSession(user)
}

// SignIn resolves email+password to a session. Unknown emails and wrong
// passwords are deliberately indistinguishable.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM public.users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(user)
}

// VerifyToken validates a bearer token and returns the identity it proves.
func (s *Service) VerifyToken(token string) (*models.User, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &models.User{ID: c.Subject, Email: c.Email}, nil
}

func (s *Service) newSession(user models.User) (*models.Session, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
		User:        user,
	}, nil
}
