package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/pesquisa/internal/cache"
	"github.com/JonMunkholm/pesquisa/internal/config"
	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/JonMunkholm/pesquisa/internal/logging"
	"github.com/JonMunkholm/pesquisa/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"cache_backend", cfg.Cache.Backend,
		"display_limit", cfg.Search.DisplayLimit,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	tableCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	client := &http.Client{Timeout: cfg.Source.FetchTimeout}
	loader := core.NewLoader(core.NewSource(cfg.Source.URL, client), core.LoaderOptions{
		MaxBytes: cfg.Source.MaxBytes,
		Cache:    tableCache,
	})

	// Warm the cache; a failure here is not fatal since every request reloads.
	if ds, err := loader.Load(ctx); err != nil {
		slog.Warn("initial load failed", "error", err)
	} else {
		slog.Info("initial load complete",
			"rows", ds.Table.Len(),
			"columns", len(ds.Table.Columns),
			"coercion_warnings", ds.CoercionWarnings,
		)
	}

	server := web.NewServer(loader, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); errors.Is(err, http.ErrServerClosed) {
		<-stopped
		slog.Info("server stopped")
	} else if err != nil {
		slog.Error("server failed", "error", err)
		closeCache()
		os.Exit(1)
	}

	if mem, ok := tableCache.(*cache.Memory); ok {
		stats := mem.Stats()
		slog.Info("cache stats", "hits", stats.Hits, "misses", stats.Misses, "sources", stats.Sources)
	}
}

// openCache builds the table cache selected by CACHE_BACKEND. The returned
// func releases its resources.
func openCache(ctx context.Context, cfg *config.Config) (core.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.Nop{}, func() {}, nil
	case config.CachePostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		pg := cache.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return pg, pool.Close, nil
	default:
		return cache.NewMemory(), func() {}, nil
	}
}

// openPool connects to PostgreSQL with the configured pool limits.
func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
