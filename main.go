package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blogdesk/blogdesk/handlers"
	"github.com/blogdesk/blogdesk/internal/analytics"
	"github.com/blogdesk/blogdesk/internal/blob"
	"github.com/blogdesk/blogdesk/internal/comments"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/internal/content"
	"github.com/blogdesk/blogdesk/internal/email"
	"github.com/blogdesk/blogdesk/internal/github"
	"github.com/blogdesk/blogdesk/internal/media"
	"github.com/blogdesk/blogdesk/pkg/logger"
	"github.com/blogdesk/blogdesk/pkg/metrics"
	"github.com/blogdesk/blogdesk/pkg/middleware"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer func() { _ = logger.Sync() }()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s github=%v cloudinary=%v email=%v blob=%s",
		cfg.Server.Environment, cfg.GitHub.Token != "", cfg.Cloudinary.CloudName != "", cfg.Email.ResendAPIKey != "", cfg.Blob.Backend)

	ctx := context.Background()

	// Retry/backoff when connecting to the blob backend to tolerate startup races
	const maxAttempts = 5
	backoff := time.Second
	var provider *blob.Provider
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		provider, err = blob.Open(ctx, cfg)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to open blob backend: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not open blob backend after %d attempts: %v", maxAttempts, err)
	}

	// Missing credentials are not fatal: the affected endpoints answer 503.
	var gw github.Gateway
	if c, err := github.New(cfg.GitHub, nil); err != nil {
		logger.Warnf("github gateway unavailable: %v", err)
		gw = github.Unconfigured{Err: err}
	} else {
		gw = c
	}
	var lister media.Lister
	if c, err := media.New(cfg.Cloudinary, nil); err != nil {
		logger.Warnf("media gateway unavailable: %v", err)
		lister = media.Unconfigured{Err: err}
	} else {
		lister = c
	}

	h := handlers.New(handlers.Deps{
		Content:    content.NewService(gw, provider.Store(blob.StoreSite), cfg.GitHub.Branch, cfg.GitHub.MenusCacheTTL),
		Comments:   comments.NewService(provider.Store(blob.StoreComments), email.New(cfg.Email)),
		Analytics:  analytics.NewAggregator(provider.Store(blob.StoreAnalytics), cfg.Analytics.CacheTTL),
		Media:      lister,
		Production: cfg.Server.IsProduction(),
		Ready:      provider.Ping,
	})

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORS(), middleware.AccessLog(), gin.Recovery())

	// the public endpoints get a limiter; Redis-backed when it is shared
	var public []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && provider.Redis() != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			public = append(public, middleware.RedisRateLimitMiddleware(provider.Redis(), cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			if cfg.RateLimit.UseRedis {
				logger.Warnf("RATE_LIMIT_USE_REDIS set but blob backend is %s; using in-memory limiter", provider.Backend())
			}
			public = append(public, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	h.Register(r, public...)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting blogdesk on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if err := provider.Close(shutdownCtx); err != nil {
		logger.Warnf("blob backend close: %v", err)
	}
}
