package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries the values served by /health.
type RouterConfig struct {
	Service string
	Version string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.Service,
			"version": cfg.Version,
		})
	})

	SetupRoutes(router.Group(""), h)
	return router
}

// SetupRoutes mounts the matching and notification routes on rg.
func SetupRoutes(rg *gin.RouterGroup, h *Handler) {
	matches := rg.Group("/matches")
	{
		matches.GET("/score", h.Score)
		matches.GET("/jobs/:jobID/applicants", h.MatchesForJob)
		matches.POST("/jobs/:jobID/notify", h.NotifyTopMatches)
		matches.GET("/applicants/:applicantID/jobs", h.MatchesForApplicant)
	}

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.PATCH("", h.MarkNotificationsRead)
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
