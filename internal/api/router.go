package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sokoni/marketplace-api/internal/api/handler"
	"github.com/sokoni/marketplace-api/internal/api/middleware"
	"github.com/sokoni/marketplace-api/internal/core/ports"
	"github.com/sokoni/marketplace-api/internal/core/service"
	"github.com/sokoni/marketplace-api/internal/infrastructure/db/postgres"
	"github.com/sokoni/marketplace-api/internal/infrastructure/db/redis"
)

// Deps carries everything the router needs to assemble the service graph.
type Deps struct {
	Pool   *pgxpool.Pool
	Redis  *goredis.Client // nil disables the product cache
	Assets ports.AssetStore
	Tokens ports.TokenManager
	// UploadsDir, when non-empty, is served statically under /uploads
	// (filesystem asset store only).
	UploadsDir string
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.BodyLimit("10M"))
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	var cache ports.ProductCache
	if deps.Redis != nil {
		cache = redis.NewProductCache(deps.Redis)
	}

	authRepo := postgres.NewAuthRepository(deps.Pool)
	authService := service.NewAuthService(authRepo, deps.Tokens)
	authHandler := handler.NewAuthHandler(authService)

	productRepo := postgres.NewProductRepository(deps.Pool)
	productService := service.NewProductService(productRepo, deps.Assets, cache, deps.Log)
	productHandler := handler.NewProductHandler(productService)

	gate := middleware.Auth(deps.Tokens)

	// --- Auth routes ---
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)

	// --- Product routes: reads are open, mutations pass the access gate ---
	e.GET("/products", productHandler.List)
	e.GET("/products/:id", productHandler.Get)
	e.POST("/products", productHandler.Create, gate)
	e.PUT("/products/:id", productHandler.Update, gate)
	e.PUT("/products/:id/sold", productHandler.ToggleSold, gate)
	e.DELETE("/products/:id", productHandler.Delete, gate)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Pool, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	if deps.UploadsDir != "" {
		e.Static("/uploads", deps.UploadsDir)
	}

	return e
}
