package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scaffold-labs/musicsearch/common/logging"
	natsclient "github.com/scaffold-labs/musicsearch/common/messaging/nats"
	"github.com/scaffold-labs/musicsearch/common/middleware"
	"github.com/scaffold-labs/musicsearch/search/internal/config"
	"github.com/scaffold-labs/musicsearch/search/internal/handlers"
	"github.com/scaffold-labs/musicsearch/search/internal/metrics"
	searchnats "github.com/scaffold-labs/musicsearch/search/internal/nats"
	"github.com/scaffold-labs/musicsearch/search/internal/ratelimit"
	"github.com/scaffold-labs/musicsearch/search/internal/server"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/sink"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "override listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("musicsearch"))
	logging.SetDefault(logger)

	slog.Info("Starting musicsearch",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.String("policy", cfg.Upstream.Policy),
		slog.String("log_level", cfg.Logging.Level),
	)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}

	musicClient, err := client.New(client.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		Timeout:      cfg.Upstream.Timeout(),
		UserAgent:    cfg.Upstream.UserAgent,
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
	})
	if err != nil {
		slog.Error("Invalid upstream configuration", logging.Error(err))
		os.Exit(1)
	}

	policy, err := trigger.ParsePolicy(cfg.Upstream.Policy)
	if err != nil {
		slog.Error("Invalid overlap policy", logging.Error(err))
		os.Exit(1)
	}

	logSink := sink.NewLogSink(logger)
	logSink.IncludeBody = cfg.Upstream.LogBody
	sinks := sink.Multi{logSink}

	// NATS is optional; the service runs without the diagnostics bus.
	var natsClient *natsclient.Client
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWaitDuration()

		natsClient, err = natsclient.NewClient(natsCfg)
		if err != nil {
			slog.Warn("Failed to connect to NATS (continuing without NATS)",
				slog.String("url", cfg.NATS.URL), logging.Error(err))
			natsClient = nil
		} else {
			slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
			sinks = append(sinks, sink.NewNATSSink(natsClient, logger))
		}
	} else {
		slog.Info("NATS messaging disabled")
	}

	trg := trigger.New(musicClient, sinks,
		trigger.WithPolicy(policy),
		trigger.WithObserver(metrics.Observer{}),
		trigger.WithLogger(logger),
	)

	var limiter ratelimit.RateLimiter = ratelimit.NoOpRateLimiter{}
	if cfg.RateLimit.Enabled {
		redisLimiter, err := ratelimit.NewRedisRateLimiter(context.Background(),
			cfg.RateLimit.RedisURL, cfg.RateLimit.Requests, cfg.RateLimit.Window())
		if err != nil {
			slog.Warn("Rate limiting disabled: Redis unavailable", logging.Error(err))
		} else {
			limiter = redisLimiter
			slog.Info("Rate limiting enabled",
				slog.Int("requests", cfg.RateLimit.Requests),
				slog.Duration("window", cfg.RateLimit.Window()))
		}
	}
	defer limiter.Close()

	h := handlers.New(trg, version).
		WithLogger(logger).
		WithRateLimiter(limiter)

	var natsHandler *searchnats.Handler
	if natsClient != nil {
		h.WithBroker(natsClient)

		natsHandler = searchnats.NewHandler(natsClient, trg, logger)
		if err := natsHandler.Start(context.Background()); err != nil {
			slog.Warn("Failed to start NATS handler", logging.Error(err))
			natsHandler = nil
		}
	}

	srv := &http.Server{
		Addr: listenAddr,
		Handler: server.NewRouter(h, middleware.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Accept", middleware.RequestIDHeader},
		}),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("musicsearch listening", slog.String("addr", listenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", logging.Error(err))
	}

	if natsHandler != nil {
		_ = natsHandler.Stop()
	}
	if natsClient != nil {
		if err := natsClient.Drain(); err != nil {
			slog.Warn("NATS drain failed", logging.Error(err))
		}
	}
}
