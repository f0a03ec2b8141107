// Package api wires the recipebox REST API: global middleware, the user,
// recipe and core API groups, probes, metrics and the media/static mounts.
package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/api/handlers"
	"github.com/yaroslav/recipebox/internal/api/middleware"
	"github.com/yaroslav/recipebox/internal/media"
	"github.com/yaroslav/recipebox/internal/metrics"
	"github.com/yaroslav/recipebox/internal/ratelimit"
	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/internal/storage"
)

// RouterConfig holds configuration for setting up the HTTP router.
type RouterConfig struct {
	// DB is the database handle, used for readiness checks.
	DB *storage.DB

	// Logger is the Zap logger for request logging.
	Logger *zap.Logger

	// Users and Recipes are the business services.
	Users   *service.UserService
	Recipes *service.RecipeService

	// InstanceID identifies this process in health responses.
	InstanceID string

	// MediaRoot and StaticRoot are served under /media and /static.
	MediaRoot  string
	StaticRoot string

	// MaxUploadBytes bounds recipe image uploads.
	MaxUploadBytes int64

	// AllowOrigins is the list of allowed CORS origins. Empty disables CORS.
	AllowOrigins []string

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	// Limits configures the login failure, registration and upload buckets.
	Limits ratelimit.Config
}

// Router is the configured Gin engine plus the background limiters it owns.
type Router struct {
	*gin.Engine

	ipLimiter *middleware.RateLimiter
	limits    *middleware.AdvancedRateLimitMiddleware
}

// NewRouter creates and configures the Gin HTTP router with all routes and
// middleware. Call Close when the server has stopped.
func NewRouter(config *RouterConfig) *Router {
	handlers.ConfigureValidator()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(config.Logger))

	if len(config.AllowOrigins) > 0 {
		router.Use(middleware.CORS(config.AllowOrigins))
	}

	ipLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst, time.Minute)
	router.Use(ipLimiter.ByIP())

	limits := middleware.NewAdvancedRateLimitMiddleware(config.Limits)
	requireUser := middleware.RequireUser(config.Users)

	userHandler := handlers.NewUserHandler(config.Users, limits)
	recipeHandler := handlers.NewRecipeHandler(config.Recipes, config.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(config.DB, config.InstanceID)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry,
		promhttp.HandlerOpts{},
	)))

	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Liveness)
		health.GET("/ready", healthHandler.Readiness)
	}

	core := router.Group("/api/core")
	{
		core.GET("/health", handlers.CoreHealth)
	}

	users := router.Group("/api/user")
	{
		users.POST("/token", userHandler.CreateToken)
		users.POST("/users", limits.RateLimitRegistration(), userHandler.CreateUser)
		users.GET("/users", requireUser, userHandler.ListUsers)
		users.PATCH("/users/:user_id", requireUser, userHandler.UpdateUserName)
		users.PATCH("/users/:user_id/password", requireUser, userHandler.UpdateUserPassword)
		users.GET("/me", requireUser, userHandler.Me)
	}

	recipes := router.Group("/api/recipe")
	recipes.Use(requireUser)
	{
		recipes.GET("/recipes", recipeHandler.ListRecipes)
		recipes.POST("/recipes", recipeHandler.CreateRecipe)
		recipes.GET("/:recipe_id", recipeHandler.GetRecipe)
		recipes.PATCH("/:recipe_id", recipeHandler.UpdateRecipe)
		recipes.DELETE("/:recipe_id", recipeHandler.DeleteRecipe)
		recipes.POST("/:recipe_id/upload-image", limits.RateLimitImageUpload(), recipeHandler.UploadImage)
	}

	if config.MediaRoot != "" {
		router.Static(strings.TrimSuffix(media.URLPrefix, "/"), config.MediaRoot)
	}
	if config.StaticRoot != "" {
		router.Static("/static", config.StaticRoot)
	}

	return &Router{
		Engine:    router,
		ipLimiter: ipLimiter,
		limits:    limits,
	}
}

// Close stops the limiter cleanup goroutines.
func (r *Router) Close() {
	r.ipLimiter.Stop()
	r.limits.Stop()
}
