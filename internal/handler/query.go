package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"sacredview/internal/model"
	"sacredview/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunsHandler returns the runs overview, the runs table built from the
// selected config keys, result keys and filters, and the steps table of the
// selected metrics.
func (h *Handler) RunsHandler(c *gin.Context) {
	var req model.RunsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	overview, ok := h.overview(c, "runs", req)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, model.RunsResponse{
		RunsOverview: overview,
		Table:        service.BuildRunsTable(overview.Runs, req.SelectedKeys, req.ResultKeys, req.Filters),
		Steps:        service.BuildMetricStepsTable(overview.Runs, req.SelectedKeys, req.MetricNames, overview.MetricValues, req.Filters),
		Status:       fmt.Sprintf("Connected. Database '%s' has %d run(s).", overview.Database, overview.RunCount),
	})
}

// ExportRunsHandler sends the runs table as a CSV attachment.
func (h *Handler) ExportRunsHandler(c *gin.Context) {
	var req model.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	overview, ok := h.overview(c, "runs", req.RunsRequest)
	if !ok {
		return
	}

	table := service.BuildRunsTable(overview.Runs, req.SelectedKeys, req.ResultKeys, req.Filters)
	sendCSV(c, table, service.CSVFilename(req.Filename, service.DefaultCSVFilename))
}

// ExportStepsHandler sends the metric steps table as a CSV attachment.
func (h *Handler) ExportStepsHandler(c *gin.Context) {
	var req model.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	overview, ok := h.overview(c, "steps", req.RunsRequest)
	if !ok {
		return
	}

	table := service.BuildMetricStepsTable(overview.Runs, req.SelectedKeys, req.MetricNames, overview.MetricValues, req.Filters)
	sendCSV(c, table, service.CSVFilename(req.Filename, service.DefaultStepsCSVFilename))
}

func sendCSV(c *gin.Context, table model.RunsTable, filename string) {
	var buf bytes.Buffer
	if err := service.WriteRunsCSV(&buf, table); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV: " + err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) overview(c *gin.Context, endpoint string, req model.RunsRequest) (model.RunsOverview, bool) {
	conn, ok := h.resolve(c, endpoint, req.ConnectRequest)
	if !ok {
		return model.RunsOverview{}, false
	}

	start := time.Now()
	overview, err := h.Lister.Overview(c.Request.Context(), conn, clampLimit(req.Limit, h.RunsLimit), req.MetricNames)
	h.observe(endpoint, start, err)
	if err != nil {
		h.fail(c, endpoint, conn, err)
		return model.RunsOverview{}, false
	}

	h.log(c).Info("loaded runs",
		zap.String("uri", service.RedactURI(conn.URI)),
		zap.String("database", conn.Database),
		zap.Int("runs", overview.RunCount),
		zap.Int("config_keys", len(overview.ConfigKeys)))
	return overview, true
}

// MetricsHandler returns the metric catalog and the step values of the requested ids.
func (h *Handler) MetricsHandler(c *gin.Context) {
	var req model.MetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	conn, ok := h.resolve(c, "metrics", req.ConnectRequest)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := h.Lister.Metrics(c.Request.Context(), conn, clampLimit(req.Limit, h.MetricsLimit), req.IDs)
	h.observe("metrics", start, err)
	if err != nil {
		h.fail(c, "metrics", conn, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// clampLimit keeps a requested limit within (0, limit].
func clampLimit(requested, limit int) int {
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}
