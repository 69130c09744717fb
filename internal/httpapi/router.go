package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"raganswer/internal/logger"
)

// NewRouter registers every endpoint on a fresh gin engine.
func NewRouter(h *Handlers, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.MaxMultipartMemory = maxUploadBytes

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/query", h.Query)
	router.POST("/reindex", h.Reindex)
	router.POST("/update/:name", h.Update)
	return router
}

func loggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
