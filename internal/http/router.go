package http

import (
	"github.com/geocoder89/contentgate/internal/http/handlers"
	"github.com/geocoder89/contentgate/internal/http/middlewares"
	"github.com/geocoder89/contentgate/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Env         string
	ServiceName string

	Authn     middlewares.Authenticator
	Gate      handlers.CreditGate
	Waitlist  handlers.WaitlistJoiner
	Generator handlers.Generator
	Limiter   middlewares.Limiter
	Checks    map[string]handlers.Pinger

	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	CORSAllowedOrigins     []string
	MaxBodyBytes           int64
	GenerateRequiresCredit bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware
	r.Use(gin.Recovery())
	if deps.ServiceName != "" {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Checks, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Authn)
	creditsHandler := handlers.NewCreditsHandler(deps.Gate)
	waitlistHandler := handlers.NewWaitlistHandler(deps.Waitlist)
	generateHandler := handlers.NewGenerateHandler(deps.Generator)

	limit := func(keyFn func(*gin.Context) string) gin.HandlerFunc {
		if deps.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(deps.Limiter, keyFn, deps.Prom)
	}

	api := r.Group("/api")

	// credits
	api.POST("/credits/use", authMW.RequireAuth(), limit(middlewares.KeyByUserOrIP), creditsHandler.UseCredit)
	api.GET("/credits", authMW.RequireAuth(), creditsHandler.GetCredits)

	// waitlist
	api.POST("/waitlist", limit(middlewares.KeyByIP), waitlistHandler.Join)

	// generate
	if deps.GenerateRequiresCredit {
		api.POST("/generate", authMW.RequireAuth(), limit(middlewares.KeyByUserOrIP), creditsHandler.RequireCredit(), generateHandler.Generate)
	} else {
		api.POST("/generate", limit(middlewares.KeyByIP), generateHandler.Generate)
	}

	// known paths with the wrong method get 405 + Allow, everything else a JSON 404
	r.NoMethod(handlers.NoMethod(r.Routes, map[string]string{
		"/api/generate": "Use POST",
	}))
	r.NoRoute(handlers.NotFound)

	return r
}
