package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/service"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, health HealthChecker, limiter *RateLimiter, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	moderatorHandler := NewModeratorHandler(services, log)
	exportHandler := NewExportHandler(services, log)
	importHandler := NewImportHandler(services, cfg.Import, log)

	router.GET("/health", healthCheck(health))
	router.GET("/metrics", metricsHandler(services, log))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", moderatorHandler.Register)
		authGroup.POST("/login", moderatorHandler.Login)
	}

	api := router.Group("/api")
	{
		articles := api.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/submitted", articleHandler.ListStatus(models.StatusSubmitted))
			articles.GET("/approved", articleHandler.ListStatus(models.StatusApproved))
			articles.GET("/rejected", articleHandler.ListStatus(models.StatusRejected, models.StatusUndisplayable))
			articles.GET("/displayable", articleHandler.ListStatus(models.StatusDisplayable))
			articles.GET("/export", exportHandler.StreamExport)
			articles.GET("/:id", articleHandler.Get)

			articles.POST("", articleHandler.Create)
			articles.POST("/import", importHandler.ImportArticles)
			articles.POST("/submitToAnalyst", articleHandler.SubmitToAnalyst)
			articles.POST("/rejected", articleHandler.StoreRejected)
			articles.POST("/submitReviewed", articleHandler.SubmitReviewed)

			articles.PUT("/:id", articleHandler.Update)
			articles.PUT("/approving/:id", optionalAuth(services.Moderator, log), articleHandler.Approve)

			articles.PATCH("/batch-update", articleHandler.BatchUpdate)
			articles.PATCH("/:id/rate", limiter.Middleware(log), articleHandler.Rate)

			articles.DELETE("/:id", articleHandler.Delete)
		}

		moderators := api.Group("/moderators")
		{
			moderators.POST("", moderatorHandler.Register)
			moderators.GET("/:id", moderatorHandler.Get)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		body := gin.H{"service": "speed-article-api"}
		if err := health.HealthCheck(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
			body["error"] = "database unreachable"
		}
		body["status"] = status
		body["timestamp"] = time.Now().Format(time.RFC3339)
		c.JSON(code, body)
	}
}

// metricsHandler returns article counts per status and the moderator count
func metricsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		counts, err := services.Article.CountByStatus(ctx)
		if err != nil {
			writeError(c, log, err)
			return
		}
		moderators, err := services.Moderator.Count(ctx)
		if err != nil {
			writeError(c, log, err)
			return
		}

		total := 0
		for _, n := range counts {
			total += n
		}

		c.JSON(http.StatusOK, gin.H{
			"articles": gin.H{
				"total":    total,
				"byStatus": counts,
			},
			"moderators": moderators,
			"timestamp":  time.Now().Format(time.RFC3339),
		})
	}
}
