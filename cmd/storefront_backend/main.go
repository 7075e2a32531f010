package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/storefront_app/internal/adapters/captcha"
	"github.com/SscSPs/storefront_app/internal/adapters/mail"
	"github.com/SscSPs/storefront_app/internal/adapters/oauth"
	"github.com/SscSPs/storefront_app/internal/adapters/payment"
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/core/services"
	"github.com/SscSPs/storefront_app/internal/handlers"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/SscSPs/storefront_app/internal/repositories/database/memory"
	"github.com/SscSPs/storefront_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/storefront_app/internal/utils"
	"github.com/SscSPs/storefront_app/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3"
)

const rateLimitPurgeInterval = 5 * time.Minute

// @title Storefront Backend API
// @version 1.0
// @description Authentication and session trust for the storefront.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize identity store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT", slog.String("value", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	rateLimiter := limiter.New(repos.RateLimitStore, rate)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer analytics.Close()

	httpClient := &http.Client{Timeout: cfg.ExternalCallTimeout}
	container := services.NewServiceContainer(cfg, repos, services.Collaborators{
		Mailer:     newMailer(cfg, logger),
		Captcha:    captcha.NewRecaptchaVerifier(cfg.CaptchaSecretKey, cfg.CaptchaVerifyURL, httpClient),
		Payments:   payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeAPIURL, httpClient),
		Strategies: newStrategies(cfg, logger),
		Analytics:  analytics,
		Metrics:    collector,
	})
	gate := middleware.NewTrustGate(cfg, container.Tokens, rateLimiter, collector)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, gate, handlers.Observability{
		Metrics:   collector,
		Gatherer:  registry,
		Analytics: analytics,
	})

	if purger, ok := repos.RateLimitStore.(portsrepo.CounterPurger); ok {
		go purgeRateLimitCounters(ctx, purger.PurgeExpired, logger)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.Bool("production", cfg.IsProduction))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped gracefully")
}

// openStore selects the identity store backend and returns a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Warn("Using in-memory identity store; data is lost on restart")
		return memory.NewRepositoryProvider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if cfg.RunMigrations {
		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			database.ClosePgxPool(dbPool, logger)
			return portsrepo.RepositoryProvider{}, nil, err
		}
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool, logger) }, nil
}

func newMailer(cfg *config.Config, logger *slog.Logger) portssvc.Mailer {
	links := mail.Links{ServerURL: cfg.ServerURL, ClientURL: cfg.ClientURL}
	var mailer portssvc.Mailer
	if cfg.SMTPHost == "" {
		mailer = mail.NewLogMailer(logger, links)
	} else {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, links)
	}
	return mail.NewThrottledMailer(mailer, cfg.MailRatePerSecond, cfg.MailBurst)
}

// newStrategies constructs a strategy for every provider with credentials.
func newStrategies(cfg *config.Config, logger *slog.Logger) []portssvc.OAuthStrategy {
	var strategies []portssvc.OAuthStrategy
	if cfg.FacebookAppID != "" && cfg.FacebookAppSecret != "" {
		strategies = append(strategies, oauth.NewFacebookStrategy(cfg.FacebookAppID, cfg.FacebookAppSecret, cfg.ServerURL))
	}
	if cfg.InstagramClientID != "" && cfg.InstagramClientSecret != "" {
		strategies = append(strategies, oauth.NewInstagramStrategy(cfg.InstagramClientID, cfg.InstagramClientSecret, cfg.ServerURL))
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		strategies = append(strategies, oauth.NewGoogleStrategy(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.ServerURL))
	}
	for _, s := range strategies {
		logger.Info("OAuth provider enabled", slog.String("source", string(s.Source())))
	}
	return strategies
}

func purgeRateLimitCounters(ctx context.Context, purge func(context.Context) (int64, error), logger *slog.Logger) {
	ticker := time.NewTicker(rateLimitPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				logger.Warn("Failed to purge rate limit counters", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("Purged rate limit counters", slog.Int64("count", n))
		}
	}
}
