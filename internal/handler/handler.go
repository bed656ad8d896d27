package handler

import (
	"fmt"
	"net/http"
	"time"

	"sacredview/internal/config"
	"sacredview/internal/metrics"
	"sacredview/internal/model"
	"sacredview/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the lookup endpoints. It holds configuration only; every
// request resolves its own connection and opens its own client.
type Handler struct {
	Resolver     service.Resolver
	Lister       *service.Lister
	RunsLimit    int
	MetricsLimit int
	Logger       *zap.Logger
}

func New(cfg config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		Resolver:     service.NewResolver(cfg.DefaultDatabase),
		Lister:       service.NewLister(cfg.ConnectTimeout),
		RunsLimit:    cfg.RunsLimit,
		MetricsLimit: cfg.MetricsLimit,
		Logger:       logger,
	}
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// ExperimentsHandler lists the experiment names. Connection parameters come
// from the query string on GET and from the JSON body on POST.
func (h *Handler) ExperimentsHandler(c *gin.Context) {
	var req model.ConnectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	conn, ok := h.resolve(c, "experiments", req)
	if !ok {
		return
	}

	start := time.Now()
	names, err := h.Lister.ListExperimentNames(c.Request.Context(), conn)
	h.observe("experiments", start, err)
	if err != nil {
		h.fail(c, "experiments", conn, err)
		return
	}

	h.log(c).Info("listed experiments",
		zap.String("uri", service.RedactURI(conn.URI)),
		zap.String("database", conn.Database),
		zap.Int("count", len(names)))

	c.JSON(http.StatusOK, model.ExperimentsResponse{
		Database:    conn.Database,
		Experiments: names,
		Status:      experimentsStatus(conn.Database, len(names)),
	})
}

func experimentsStatus(database string, count int) string {
	if count == 0 {
		return fmt.Sprintf("Connected. Database '%s' contains no Sacred experiments.", database)
	}
	return fmt.Sprintf("Connected. Database '%s' contains %d Sacred experiment(s).", database, count)
}

// resolve writes the error response itself and reports false when the input is unusable.
func (h *Handler) resolve(c *gin.Context, endpoint string, req model.ConnectRequest) (service.ResolvedConnection, bool) {
	conn, err := h.Resolver.Resolve(service.InputFromRequest(req))
	if err != nil {
		metrics.LookupsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
		h.fail(c, endpoint, conn, err)
		return service.ResolvedConnection{}, false
	}
	return conn, true
}

// fail maps an error kind to a status code and a message the page can show.
func (h *Handler) fail(c *gin.Context, endpoint string, conn service.ResolvedConnection, err error) {
	cause := service.RedactURI(service.Cause(err).Error())

	var (
		status int
		msg    string
	)
	switch service.KindOf(err) {
	case service.KindInvalidInput:
		status, msg = http.StatusBadRequest, cause
	case service.KindConnection:
		status, msg = http.StatusBadGateway, "Connection failed: "+cause
	case service.KindQuery:
		status, msg = http.StatusInternalServerError, fmt.Sprintf("Connected, but failed to query %s: %s", endpoint, cause)
	default:
		status, msg = http.StatusInternalServerError, service.RedactURI(err.Error())
	}

	h.log(c).Warn("lookup failed",
		zap.String("endpoint", endpoint),
		zap.String("kind", service.KindOf(err).String()),
		zap.String("uri", service.RedactURI(conn.URI)),
		zap.String("database", conn.Database),
		zap.String("error", cause))

	c.JSON(status, gin.H{"error": msg})
}

func (h *Handler) observe(endpoint string, start time.Time, err error) {
	metrics.LookupDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.LookupsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return service.KindOf(err).String()
}

func (h *Handler) log(c *gin.Context) *zap.Logger {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if id := c.GetString(RequestIDKey); id != "" {
		logger = logger.With(zap.String("request_id", id))
	}
	return logger
}
