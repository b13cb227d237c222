package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bloodbank/m/internal/session"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if h.loginRedirectURL != "" {
		http.Redirect(w, r, h.loginRedirectURL, http.StatusFound)
		return
	}
	h.servePage("login.html")(w, r)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := form.first("username")
	password := form.first("password")

	ok := false
	if username != "" && password != "" {
		ok, err = h.accounts.Authenticate(r.Context(), username, password)
		if err != nil {
			h.respondInternalHTML(w, r, "authenticate", err)
			return
		}
	}
	h.metrics.ObserveLogin(ok)
	if !ok {
		h.log.Info("login rejected", zap.String("username", username))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(invalidCredentialsHTML))
		return
	}

	// A stale session from a previous login is dropped rather than reused.
	if err := h.sessions.Discard(r.Context(), r); err != nil {
		h.log.Warn("drop previous session", zap.Error(err))
	}
	if _, err := h.sessions.Start(r.Context(), w, username); err != nil {
		h.respondInternalHTML(w, r, "start session", err)
		return
	}
	h.log.Info("login", zap.String("username", username))
	http.Redirect(w, r, "/home.html", http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		h.log.Warn("end session", zap.Error(err))
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// requireSession lets the request through only for a logged-in session and
// sends everyone else to the login page.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Load(r.Context(), r)
		if errors.Is(err, session.ErrNoSession) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if err != nil {
			h.respondInternalHTML(w, r, "load session", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}
