package auth

import (
	"context"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/db"
)

// Package auth provides authentication-related HTTP handlers.
// The HTTP methods are implemented in separate files (login.go, me.go).

// Members looks up login candidates.
type Members interface {
	FindMemberByEmail(ctx context.Context, email string) (db.Member, error)
}

// Handler wires auth endpoints to the member store and JWT secret.
type Handler struct {
	members   Members
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
}

// New returns a new auth handler.
func New(members Members, jwtSecret string, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Handler{members: members, jwtSecret: jwtSecret, ttl: ttl, now: time.Now}
}
