// Package api - Thin HTTP layer over the tax engine
// The API is only responsible for input ingestion, engine orchestration and
// output serialization. It never computes taxes itself.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/core/engine"
	"taxmap/core/types"
)

// Options configures a Server
type Options struct {
	Version      string
	Catalog      *catalog.Catalog
	Rates        RateProvider
	Orchestrator *engine.Orchestrator
	Logger       *zap.Logger

	DefaultInputCurrency   types.CurrencyCode
	DefaultDisplayCurrency types.CurrencyCode

	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
}

// Server is the API server
type Server struct {
	router  *gin.Engine
	handler *Handler
	limiter *RateLimiter
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Orchestrator == nil {
		opts.Orchestrator = engine.NewOrchestrator(engine.WithLogger(opts.Logger.Named("engine")))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(opts.Logger.Named("http")))
	router.Use(corsMiddleware(opts.AllowedOrigins))

	s := &Server{
		router:  router,
		handler: NewHandler(opts),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = NewRateLimiter(opts.RequestsPerSecond, opts.Burst, opts.Logger.Named("ratelimit"))
		router.Use(s.limiter.Middleware())
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	h := s.handler

	s.router.GET("/health", h.Health)
	s.router.GET("/version", h.Version)

	v1 := s.router.Group("/api/v1")
	v1.POST("/calculate", h.Calculate)
	v1.POST("/export", h.Export)
	v1.GET("/countries", h.ListCountries)
	v1.GET("/countries/:key", h.GetCountry)
	v1.GET("/countries/:key/tax", h.CountryTax)
	v1.GET("/compare", h.Compare)
	v1.GET("/rates", h.Rates)

	s.router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
}

// Limiter returns the rate limiter, or nil when limiting is disabled
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
