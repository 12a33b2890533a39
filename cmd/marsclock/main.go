package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mars/marsclock/internal/api"
	"github.com/mars/marsclock/internal/auth"
	"github.com/mars/marsclock/internal/metrics"
	"github.com/mars/marsclock/internal/site"
	"github.com/mars/marsclock/internal/snapshot"
	"github.com/mars/marsclock/internal/stream"
	"github.com/mars/marsclock/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("MARSCLOCK_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	sites := loadSiteCatalog(logger)

	store := snapshot.NewStore()
	gen := snapshot.NewGenerator(store, sites, loadSnapshotInterval(logger), logger)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(store, streamCfg, logger)

	srv := api.NewServer(addr, logger, authCfg, sites, store, streamHandler, web.Content)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start snapshot generator.
	go gen.Start(ctx)

	// Background goroutine to update the snapshot age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetSnapshotAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "sites", len(sites))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("MARSCLOCK_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("MARSCLOCK_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("MARSCLOCK_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("MARSCLOCK_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// loadSiteCatalog reads the YAML catalog named by MARSCLOCK_SITES_FILE,
// falling back to the built-in defaults when the variable is unset or the
// file cannot be used.
func loadSiteCatalog(logger *slog.Logger) []site.Site {
	path := os.Getenv("MARSCLOCK_SITES_FILE")
	if path == "" {
		return site.Defaults()
	}

	sites, err := site.Load(path)
	if err != nil {
		logger.Warn("could not load site catalog, using defaults", "path", path, "error", err)
		return site.Defaults()
	}

	logger.Info("loaded site catalog", "path", path, "sites", len(sites))
	return sites
}

func loadSnapshotInterval(logger *slog.Logger) time.Duration {
	interval := time.Second

	if v := os.Getenv("MARSCLOCK_SNAPSHOT_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 {
			logger.Warn("invalid MARSCLOCK_SNAPSHOT_INTERVAL_MS value, using default", "value", v, "default", 1000)
		} else {
			interval = time.Duration(n) * time.Millisecond
		}
	}

	return interval
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("MARSCLOCK_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid MARSCLOCK_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("MARSCLOCK_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid MARSCLOCK_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
	)

	return cfg
}
