package routes

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todostore/internal/adapter/http/handler"
	"todostore/internal/adapter/http/middleware"
	"todostore/internal/core/telemetry"
	"todostore/pkg/config"
	"todostore/pkg/logger"
)

type HandlersConfig struct {
	TodoHandler    *handler.TodoHandler
	WeatherHandler *handler.WeatherHandler
	HealthHandler  *handler.HealthHandler
}

type Options struct {
	ServiceName    string
	Config         *config.AppConfig
	Logger         *logger.Logger
	Metrics        *telemetry.AppMetrics
	RateLimitStore middleware.RateLimitStore
}

func SetupRouterWithConfig(handlers HandlersConfig, opts Options) *gin.Engine {
	if opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.NewHTTPSEnforcer(opts.Config.EnforceHTTPS, opts.Logger).HTTPSMiddleware())
	router.Use(otelgin.Middleware(opts.ServiceName))
	router.Use(middleware.Logging(opts.Logger))

	if opts.Config.RateLimitEnabled && opts.RateLimitStore != nil {
		limiter := middleware.NewRateLimiter(
			opts.RateLimitStore,
			opts.Config.RateLimit.Requests,
			opts.Config.RateLimit.Window,
			opts.Logger,
			opts.Metrics,
		)
		router.Use(limiter.RateLimitMiddleware())
	}

	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}

	setupRoutes(router, handlers)

	return router
}

// SetupRouterForTests wires the routes behind recovery and CORS only.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	setupRoutes(router, handlers)

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig) {
	if handlers.HealthHandler != nil {
		router.GET("/healthz", handlers.HealthHandler.Health)
	}

	if handlers.TodoHandler != nil {
		todos := router.Group("/todos")
		{
			todos.GET("", handlers.TodoHandler.GetAllTodos)
			todos.POST("", handlers.TodoHandler.CreateTodo)
			todos.GET("/:id", handlers.TodoHandler.GetTodo)
			todos.PUT("/:id", handlers.TodoHandler.UpdateTodo)
			todos.PATCH("/:id/done", handlers.TodoHandler.UpdateStatus)
			todos.DELETE("/:id", handlers.TodoHandler.DeleteTodo)
		}
	}

	if handlers.WeatherHandler != nil {
		router.GET("/weather", handlers.WeatherHandler.GetCurrentWeather)
	}
}
