package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"bloodbank/m/internal/config"
	"bloodbank/m/internal/database"
	"bloodbank/m/internal/logger"
	"bloodbank/m/internal/migrations"
)

// environment is what every command needs: a logger and a migrated
// database.
type environment struct {
	log *zap.Logger
	db  *sqlx.DB
}

func bootstrap(ctx context.Context, cfg config.Config) (*environment, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	for _, warning := range cfg.Warnings {
		log.Warn(warning)
	}

	db, err := database.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		_ = log.Sync()
		return nil, err
	}
	return &environment{log: log, db: db}, nil
}

func (e *environment) Close() {
	_ = e.db.Close()
	_ = e.log.Sync()
}
