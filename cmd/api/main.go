package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/contentgate/internal/auth"
	"github.com/geocoder89/contentgate/internal/config"
	"github.com/geocoder89/contentgate/internal/credits"
	"github.com/geocoder89/contentgate/internal/db"
	"github.com/geocoder89/contentgate/internal/generation"
	httpx "github.com/geocoder89/contentgate/internal/http"
	"github.com/geocoder89/contentgate/internal/http/handlers"
	"github.com/geocoder89/contentgate/internal/http/middlewares"
	"github.com/geocoder89/contentgate/internal/observability"
	"github.com/geocoder89/contentgate/internal/redisclient"
	"github.com/geocoder89/contentgate/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "contentgate-api"

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelName := ""
	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTelEndpoint)
		if err != nil {
			log.Error("otel init failed", "err", err)
			os.Exit(1)
		}
		otelName = serviceName

		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
	}

	checks := map[string]handlers.Pinger{"postgres": pool}

	var limiter middlewares.Limiter = middlewares.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		limiter = redisclient.NewLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
		checks["redis"] = rdb
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		log.Error("identity provider misconfigured", "err", err)
		os.Exit(1)
	}
	if cfg.IdentityCacheTTL > 0 {
		verifier = auth.NewCachingVerifier(verifier, cfg.IdentityCacheTTL)
	}

	generator := generation.NewProtectedGenerator(
		generation.NewClient(generation.ClientConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
		}),
		generation.ProtectedConfig{
			Timeout:          cfg.GenerateTimeout,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
		prom,
	)

	var shuttingDown atomic.Bool

	router := httpx.NewRouter(httpx.RouterDeps{
		Env:                    cfg.Env,
		ServiceName:            otelName,
		Authn:                  auth.NewAuthenticator(verifier, cfg.IdentityTimeout),
		Gate:                   credits.NewGate(postgres.NewAccountsRepo(pool, prom), prom),
		Waitlist:               postgres.NewWaitlistRepo(pool, prom),
		Generator:              generator,
		Limiter:                limiter,
		Checks:                 checks,
		ShuttingDown:           shuttingDown.Load,
		Prom:                   prom,
		Gatherer:               reg,
		CORSAllowedOrigins:     cfg.CORSAllowedOrigins,
		MaxBodyBytes:           cfg.MaxBodyBytes,
		GenerateRequiresCredit: cfg.GenerateRequiresCredit,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.GenerateTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "identity_provider", cfg.IdentityProvider)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	shuttingDown.Store(true)
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("shutdown complete")
}

// buildVerifier selects the identity backend named by IDENTITY_PROVIDER.
func buildVerifier(cfg config.Config) (auth.TokenVerifier, error) {
	httpClient := &http.Client{Timeout: cfg.IdentityTimeout}

	switch cfg.IdentityProvider {
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required")
		}
		return auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey, httpClient), nil
	case "jwt":
		if cfg.SupabaseJWTSecret == "" {
			return nil, errors.New("SUPABASE_JWT_SECRET is required")
		}
		return auth.NewManager(cfg.SupabaseJWTSecret, time.Hour), nil
	case "kratos":
		return auth.NewKratosVerifier(cfg.KratosPublicURL, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown IDENTITY_PROVIDER %q", cfg.IdentityProvider)
	}
}
