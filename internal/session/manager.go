package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultCookieName = "bloodbank_session"

// ErrNoSession is returned by Manager.Load when the request carries no
// usable session.
var ErrNoSession = errors.New("no session")

// Options configures a Manager.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager issues and resolves session cookies. The cookie holds an HS256 JWT
// whose ID claim names a Session in the Store.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		now:        time.Now,
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Start creates a logged-in session for username and sets its cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, username string) (Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		LoggedIn:  true,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.sign(s)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
	return s, nil
}

// Load resolves the session named by the request cookie. Missing cookies,
// bad signatures, expired tokens and unknown sessions all yield ErrNoSession;
// other errors come from the Store.
func (m *Manager) Load(ctx context.Context, r *http.Request) (Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	id, err := m.verify(c.Value)
	if err != nil {
		return Session{}, ErrNoSession
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if !s.LoggedIn || s.Expired(m.now()) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Discard deletes the request's session, if any, leaving the cookie alone.
func (m *Manager) Discard(ctx context.Context, r *http.Request) error {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	id, err := m.verify(c.Value)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// End deletes the request's session, if any, and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := m.Discard(ctx, r)
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
	return err
}

func (m *Manager) sign(s Session) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.ID == "" {
		return "", errors.New("invalid session claims")
	}
	return claims.ID, nil
}
