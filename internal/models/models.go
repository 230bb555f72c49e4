package models

import "time"

// User is owned by the identity provider; the API layer only ever reads it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session mirrors the payload shape a hosted auth provider returns on
// sign-in/sign-up.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

type Post struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Content       *string    `json:"content"`
	Platform      string     `json:"platform"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Analytics holds one row of per-user counters. total_posts is derived from
// the posts table and recomputed after post writes; the other counters are
// caller-supplied.
type Analytics struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TotalPosts      int       `json:"total_posts"`
	TotalEngagement int       `json:"total_engagement"`
	TotalViews      int       `json:"total_views"`
	TotalFollowers  int       `json:"total_followers"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Platform struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PlatformName     string    `json:"platform_name"`
	PlatformUsername *string   `json:"platform_username"`
	AccessToken      *string   `json:"access_token"`
	CreatedAt        time.Time `json:"created_at"`
}
