package handler

import (
	"time"

	"sacredview/web"

	"github.com/gin-contrib/static"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type RouterOptions struct {
	EnableMetrics bool
}

// NewRouter wires the page, the API routes and the middleware stack.
func NewRouter(h *Handler, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(ScrubQuery())
	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping", "/metrics"},
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", c.GetString(RequestIDKey))}
		},
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(RestoreQuery())

	r.Use(static.Serve("/", static.EmbedFolder(web.Static, web.StaticRoot)))

	r.GET("/ping", Ping)
	if opts.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.POST("/connect", h.ConnectHandler)
	api.GET("/experiments", h.ExperimentsHandler)
	api.POST("/experiments", h.ExperimentsHandler)
	api.POST("/runs", h.RunsHandler)
	api.POST("/runs/export", h.ExportRunsHandler)
	api.POST("/runs/steps/export", h.ExportStepsHandler)
	api.POST("/metrics", h.MetricsHandler)

	return r
}
