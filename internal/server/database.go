// Package server hosts the long-running pieces of watch mode: the audit store
// connection and the gRPC health endpoint.
package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/site-records/internal/common"
	repo "github.com/joseph-ayodele/site-records/internal/repository"
)

// ConnectDB opens the audit store described by cfg. An empty DSN means no store,
// reported as (nil, nil).
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		logger.Info("database.disabled")
		return nil, nil
	}

	db, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "connect audit store", err)
	}
	if err := db.HealthCheck(ctx, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, common.NewAppError("DATABASE_ERROR", "audit store health check", err)
	}
	return db, nil
}
