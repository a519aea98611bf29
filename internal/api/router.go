package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"sjsage522/carspecworker/logger"
)

// NewRouter wires the trigger routes
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/test", h.Ping)
	r.POST("/scrape", h.Scrape)
	r.GET("/status", h.Status)
	r.GET("/cars", h.Cars)

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}
