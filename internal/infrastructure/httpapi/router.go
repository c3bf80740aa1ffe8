package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/usecase"
)

// RankedReader serves the display read path.
type RankedReader interface {
	Ranked(ctx context.Context, maxAgeDays int) []domain.RankedArticle
}

// CycleRunner runs one refresh cycle unless another is in flight.
type CycleRunner interface {
	RunNow(ctx context.Context) (usecase.Outcome, bool)
}

// Deps groups what the router needs.
type Deps struct {
	Feed    RankedReader
	Sources ports.SourceAdmin
	Runner  CycleRunner
	Metrics http.Handler
	HTTP    config.HTTPConfig
	Logger  *slog.Logger
}

// NewRouter creates and configures the Gin router.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	router := gin.New()
	router.Use(recoveryMiddleware(logger))
	router.Use(loggingMiddleware(logger))

	router.GET("/health", healthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	articles := newArticleHandler(deps.Feed)
	router.GET("/api/articles", articles.List)

	admin := router.Group("/admin", gin.BasicAuth(gin.Accounts{
		deps.HTTP.AdminUsername: deps.HTTP.AdminPassword,
	}))
	{
		sources := newSourceHandler(deps.Sources, logger)
		admin.GET("/sources", sources.List)
		admin.POST("/sources", sources.Add)
		admin.PATCH("/sources/status", sources.SetStatus)

		refresh := newRefreshHandler(deps.Runner)
		admin.POST("/refresh", refresh.Run)
	}

	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func recoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", "error", err, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
