package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/service"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// ReplicationHandler exposes week-to-week replication.
type ReplicationHandler struct {
	replication *service.ReplicationService
	metrics     *service.Metrics
	logger      *zap.Logger
}

// NewReplicationHandler constructs the replication handler.
func NewReplicationHandler(replication *service.ReplicationService, metrics *service.Metrics, logger *zap.Logger) *ReplicationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicationHandler{replication: replication, metrics: metrics, logger: logger}
}

// CopyWeek godoc
// @Summary Replicate the session's grid into target sessions
// @Tags replication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "source session id"
// @Param request body service.CopyWeekRequest true "targets"
// @Success 200 {object} response.Envelope{data=service.CopyWeekResult}
// @Router /sessions/{id}/replicate [post]
func (h *ReplicationHandler) CopyWeek(c *gin.Context) {
	var req service.CopyWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.replication.CopyWeek(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.EntriesCopied(result.Copied)
	}
	response.JSON(c, http.StatusOK, result, nil)
}
