package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-service/api/swagger"
	"user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/gin/middleware"
	"user-service/pkg/logger"
)

const serviceName = "user-service"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	userHandler *handler.UserHandler,
	store Pinger,
	registry *prometheus.Registry,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Recovery is innermost so recovered panics still reach the access log and metrics.
	router.Use(logger.RequestID())
	router.Use(logger.AccessLog(log))
	router.Use(middleware.NewMetrics(registry).Handler())
	router.Use(middleware.Recovery(log))

	router.GET("/health", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	swaggerUI := httpSwagger.Handler(httpSwagger.URL(swagger.DocPath))
	router.GET("/swagger/*any", func(c *gin.Context) {
		if c.Request.URL.Path == swagger.DocPath {
			c.Data(http.StatusOK, "application/json", swagger.Doc)
			return
		}
		swaggerUI(c.Writer, c.Request)
	})

	users := router.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	return router
}
