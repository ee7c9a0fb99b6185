// Package main - Entry point for the taxmap API server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxmap/api"
	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/internal/config"
	"taxmap/internal/logging"
)

var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	refresh := flag.Duration("refresh", time.Hour, "exchange rate refresh interval (0 disables)")
	flag.Parse()

	if err := run(*configPath, *addr, *refresh); err != nil {
		fmt.Fprintf(os.Stderr, "taxmap server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, refresh time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.Named("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Error("catalog rejected", zap.String("path", cfg.Catalog.Path), zap.Error(err))
		return err
	}

	var source currency.Source
	if !cfg.Rates.Offline {
		source = currency.NewHTTPSource(cfg.Rates.URL,
			currency.WithMaxRetries(cfg.Rates.MaxRetries),
			currency.WithSourceLogger(logging.Named("rates")))
	}
	provider := currency.NewProvider(source, currency.WithTimeout(cfg.Rates.Timeout()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// warm the rate table so the first request does not wait
	go func() { _, _ = provider.Snapshot(ctx) }()
	if source != nil && refresh > 0 {
		go refreshRates(ctx, provider, refresh, log)
	}

	server := api.NewServer(api.Options{
		Version:                version,
		Catalog:                cat,
		Rates:                  provider,
		Orchestrator:           engine.NewOrchestrator(engine.WithWorkers(cfg.Engine.Workers)),
		Logger:                 logging.Logger,
		DefaultInputCurrency:   cfg.Engine.DefaultInputCurrency,
		DefaultDisplayCurrency: cfg.Engine.DefaultDisplayCurrency,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		RequestsPerSecond:      cfg.Server.RequestsPerSecond,
		Burst:                  cfg.Server.Burst,
	})
	if limiter := server.Limiter(); limiter != nil {
		go sweepLimiters(ctx, limiter)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
			zap.Int("countries", cat.Len()),
			zap.Bool("offline", cfg.Rates.Offline))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func refreshRates(ctx context.Context, provider *currency.Provider, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t, err := provider.Refresh(ctx); err == nil {
				log.Info("exchange rates refreshed", zap.String("snapshot", t.ID()))
			}
		}
	}
}

func sweepLimiters(ctx context.Context, limiter *api.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limiter.Cleanup(now)
		}
	}
}
