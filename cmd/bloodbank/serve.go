package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bloodbank/m/internal/api"
	"bloodbank/m/internal/config"
	"bloodbank/m/internal/metrics"
	"bloodbank/m/internal/session"
	"bloodbank/m/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	env, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()
	log := env.log

	created, err := store.NewAccountStore(env.db).EnsureAccount(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("created bootstrap account", zap.String("username", cfg.AdminUsername))
	}

	sessionStore, closeSessions, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()
	sessions := session.NewManager(sessionStore, session.Options{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
	})

	handler := api.New(env.db, sessions, metrics.New(), log, api.Options{
		PublicDir:        cfg.PublicDir,
		LoginRedirectURL: cfg.LoginRedirectURL,
		AllowedOrigins:   cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("bloodbank server starting", zap.String("addr", srv.Addr), zap.String("version", Version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newSessionStore picks Redis when REDIS_ADDR is set and process memory
// otherwise. The returned func releases whatever was opened.
func newSessionStore(ctx context.Context, cfg config.Config, log *zap.Logger) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		memory := session.NewMemoryStore()
		sweepCtx, cancel := context.WithCancel(ctx)
		go sweepSessions(sweepCtx, memory, log)
		log.Info("using in-memory session store")
		return memory, cancel, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

func sweepSessions(ctx context.Context, memory *session.MemoryStore, log *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := memory.Sweep(); n > 0 {
				log.Debug("swept expired sessions", zap.Int("removed", n))
			}
		}
	}
}
