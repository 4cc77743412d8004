// Package session tracks issued login tokens so they can be revoked before
// they expire.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown, revoked or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record of one login.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	TenantID  uint      `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry at now.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions keyed by token ID.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
