package members

import (
	"context"

	"github.com/dwax1324/roomescape-payment/internal/db"
)

// Package members provides member management HTTP handlers.
// - list.go:   Handler.List
// - create.go: Handler.Create

// Store is the member persistence the handlers need.
type Store interface {
	ListMembers(ctx context.Context) ([]db.Member, error)
	CreateMember(ctx context.Context, name, email, password string, admin bool) (db.Member, error)
}

// Handler wires member endpoints to the data store.
type Handler struct{ store Store }

// New returns a new members handler.
func New(s Store) *Handler { return &Handler{store: s} }

type memberResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}
