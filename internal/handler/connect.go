package handler

import (
	"net/http"
	"time"

	"sacredview/internal/model"
	"sacredview/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConnectHandler checks that the submitted credentials reach the database
// without reading anything from it.
func (h *Handler) ConnectHandler(c *gin.Context) {
	var req model.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	conn, ok := h.resolve(c, "connect", req)
	if !ok {
		return
	}

	start := time.Now()
	err := h.Lister.Ping(c.Request.Context(), conn)
	h.observe("connect", start, err)
	if err != nil {
		h.fail(c, "connect", conn, err)
		return
	}

	h.log(c).Info("connection checked",
		zap.String("uri", service.RedactURI(conn.URI)),
		zap.String("database", conn.Database))

	c.JSON(http.StatusOK, gin.H{
		"message":  "Connected successfully",
		"database": conn.Database,
	})
}
