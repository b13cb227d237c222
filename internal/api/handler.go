package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"bloodbank/m/internal/metrics"
	"bloodbank/m/internal/session"
	"bloodbank/m/internal/store"
)

// Options carries the handler settings that do not come from a dependency.
type Options struct {
	PublicDir        string
	LoginRedirectURL string
	AllowedOrigins   []string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db       *sqlx.DB
	units    *store.UnitStore
	accounts *store.AccountStore
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *zap.Logger

	publicDir        string
	loginRedirectURL string
	allowedOrigins   []string
}

// New constructs a Handler. A nil logger or metrics set is replaced with a
// no-op logger or a fresh registry.
func New(db *sqlx.DB, sessions *session.Manager, m *metrics.Metrics, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.PublicDir == "" {
		opts.PublicDir = "public"
	}
	return &Handler{
		db:               db,
		units:            store.NewUnitStore(db),
		accounts:         store.NewAccountStore(db),
		sessions:         sessions,
		metrics:          m,
		log:              log,
		publicDir:        opts.PublicDir,
		loginRedirectURL: opts.LoginRedirectURL,
		allowedOrigins:   opts.AllowedOrigins,
	}
}

// Router wires up the HTTP surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CleanPath)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if len(h.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", h.health)
	r.Handle("/metrics", h.metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home.html", http.StatusFound)
	})
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/logout", h.logout)
	r.Get("/confirmation", h.servePage("confirmation.html"))

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireSession)

		for _, name := range gatedPages {
			pr.Get("/"+name, h.servePage(name))
		}
		pr.Post("/submit", h.submit)
	})

	r.Post("/search", h.search)
	r.Post("/addBloodType", h.addBloodType)
	r.Post("/submitScreening", h.submitScreening)

	r.Handle("/*", http.FileServer(newPublicFS(h.publicDir)))

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request and feeds the request metrics.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			h.metrics.ObserveRequest(route, r.Method, status, elapsed)
			h.log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
