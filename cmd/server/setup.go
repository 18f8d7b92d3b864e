package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/woimport/internal/config"
	"github.com/JonMunkholm/woimport/internal/core"
	"github.com/JonMunkholm/woimport/internal/droplocation"
	"github.com/JonMunkholm/woimport/internal/logging"
)

// loadConfig loads configuration and sets up structured logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration", "config", cfg.String())
	return cfg, nil
}

// openPool connects to PostgreSQL with the configured pool settings.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// newDropLocation builds the configured drop location provider.
func newDropLocation(cfg config.DropConfig) (core.DropLocation, error) {
	switch cfg.Provider {
	case "minio":
		slog.Info("using minio drop location", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
		drop, err := droplocation.NewMinioDropLocation(
			droplocation.WithEndpoint(cfg.Endpoint),
			droplocation.WithBucket(cfg.Bucket),
			droplocation.WithAccessKey(cfg.AccessKey),
			droplocation.WithSecretKey(cfg.SecretKey),
			droplocation.WithSSL(cfg.UseSSL),
		)
		if err != nil {
			return nil, fmt.Errorf("minio drop location: %w", err)
		}
		return drop, nil
	case "fs", "":
		slog.Info("using filesystem drop location", "root", cfg.RootDir)
		return droplocation.NewFSDropLocation(cfg.RootDir), nil
	default:
		return nil, fmt.Errorf("unknown drop provider %q", cfg.Provider)
	}
}
