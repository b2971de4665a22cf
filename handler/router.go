package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the API routes onto a fresh gin engine.
func NewRouter(h *ContributionHandler, maxFileSize int64, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	router.MaxMultipartMemory = maxFileSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Contribution Calculator",
		})
	})

	api := router.Group("/api/v1")
	{
		policies := api.Group("/policies")
		{
			policies.GET("", h.ListPolicies)
			policies.POST("/upload", h.UploadPolicies)
		}

		salaries := api.Group("/salaries")
		{
			salaries.GET("", h.ListSalaries)
			salaries.POST("/upload", h.UploadSalaries)
		}

		results := api.Group("/results")
		{
			results.GET("", h.ListResults)
			results.POST("/calculate", h.Calculate)
			results.GET("/export", h.ExportResults)
		}
	}

	return router
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
