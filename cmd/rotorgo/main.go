// Command rotorgo runs the satellite tracking service: it keeps a TLE
// dataset loaded, serves single-shot and streaming look-angle predictions
// over HTTP, and refreshes the dataset on a timer.
package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rotor/rotorgo/internal/api"
	"github.com/rotor/rotorgo/internal/auth"
	"github.com/rotor/rotorgo/internal/stream"
	"github.com/rotor/rotorgo/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ROTORGO_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	tleCache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles)

	// Serve from the last cached dataset while the first fetch is pending.
	if data, ts, err := tleCache.LoadLatest(); err != nil {
		logger.Info("no TLE cache found, starting without element data", "error", err)
	} else if sats, err := tle.Parse(bytes.NewReader(data), logger); err != nil {
		logger.Warn("failed to parse cached TLE data", "error", err)
	} else if len(sats) > 0 {
		store.Set(tle.NewDataset("cache", ts, sats))
		store.PublishMetrics()
		logger.Info("loaded element data from cache",
			"count", len(sats), "cached_at", ts.Format(time.RFC3339))
	}

	var fetcher *tle.Fetcher
	if tleCfg.EnableFetch {
		fetcher = tle.NewFetcher(tleCfg.SourceURL, logger, tleCfg.ExtraSourceURLs...)
	}

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(store, streamCfg, logger)

	srv := api.NewServer(addr, logger, authCfg, api.Deps{
		Store:   store,
		Fetcher: fetcher,
		Cache:   tleCache,
		Stream:  streamHandler,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"tle_fetch_enabled", tleCfg.EnableFetch,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.HTTPServer().Shutdown(shutdownCtx)
	})

	// Keep the dataset age gauge advancing between refreshes.
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.PublishMetrics()
			case <-ctx.Done():
				return nil
			}
		}
	})

	// Periodic dataset refresh. The first refresh runs immediately when no
	// dataset was recovered from the cache.
	if fetcher != nil && tleCfg.RefreshInterval > 0 {
		g.Go(func() error {
			if store.Get() == nil {
				refresh(ctx, store, fetcher, tleCache, logger)
			}
			ticker := time.NewTicker(tleCfg.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					refresh(ctx, store, fetcher, tleCache, logger)
				case <-ctx.Done():
					return nil
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// refresh runs one dataset refresh, logging failures instead of propagating
// them; a failed refresh leaves the previous dataset in place.
func refresh(ctx context.Context, store *tle.Store, fetcher *tle.Fetcher, cache *tle.Cache, logger *slog.Logger) {
	refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := tle.Refresh(refreshCtx, store, fetcher, cache, logger); err != nil {
		logger.Warn("scheduled TLE refresh failed", "error", err)
	}
}

// tleConfig collects the element-data settings from the environment.
type tleConfig struct {
	EnableFetch     bool
	SourceURL       string
	ExtraSourceURLs []string
	CacheDir        string
	MaxFiles        int
	RefreshInterval time.Duration
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ROTORGO_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ROTORGO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ROTORGO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ROTORGO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch:     true,
		CacheDir:        "/tmp/rotorgo/tle",
		MaxFiles:        5,
		RefreshInterval: 6 * time.Hour,
	}

	if v := os.Getenv("ROTORGO_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ROTORGO_ENABLE_TLE_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("ROTORGO_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("ROTORGO_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		cfg.ExtraSourceURLs = urls
	}

	if v := os.Getenv("ROTORGO_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("ROTORGO_TLE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ROTORGO_TLE_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("ROTORGO_TLE_REFRESH_INTERVAL"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 0 {
			logger.Warn("invalid ROTORGO_TLE_REFRESH_INTERVAL value, using default", "value", v, "default", 21600)
		} else {
			cfg.RefreshInterval = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"fetch_enabled", cfg.EnableFetch,
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraSourceURLs,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		MaxTotal:           1000,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("ROTORGO_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ROTORGO_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ROTORGO_STREAM_MAX_TOTAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ROTORGO_STREAM_MAX_TOTAL value, using default", "value", v, "default", 1000)
		} else {
			cfg.MaxTotal = n
		}
	}

	if v := os.Getenv("ROTORGO_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ROTORGO_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ROTORGO_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ROTORGO_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"max_total", cfg.MaxTotal,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}
