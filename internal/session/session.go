// Package session keeps login state for browser clients. The cookie carries
// a signed token naming a server-side session; the session itself lives in
// a Store so that logout and expiry take effect immediately.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the session does not exist or has
// expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	LoggedIn  bool      `json:"logged_in"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by ID.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
