package session

import (
	"context"
	"errors"
	"time"
)

// ErrStore wraps failures of the backend holding session records.
var ErrStore = errors.New("session store unavailable")

// Record is the server-side state of one session.
type Record struct {
	UserID uint `json:"user_id"`
}

// Backend persists records under opaque ids and expires them after ttl.
type Backend interface {
	Load(ctx context.Context, id string) (Record, bool, error)
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
