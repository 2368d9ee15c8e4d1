package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/service"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// ExportHandler exposes synchronous grid downloads and the background
// export pipeline.
type ExportHandler struct {
	exports *service.ExportService
	jobs    *service.ExportJobService
	metrics *service.Metrics
	logger  *zap.Logger
}

// NewExportHandler constructs the export handler.
func NewExportHandler(exports *service.ExportService, jobs *service.ExportJobService, metrics *service.Metrics, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exports: exports, jobs: jobs, metrics: metrics, logger: logger}
}

// Download godoc
// @Summary Download the session grid directly
// @Tags exports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "session id"
// @Param format query string true "csv or pdf"
// @Param batchId query string false "narrow to one batch"
// @Success 200 {file} binary
// @Router /sessions/{id}/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	result, err := h.exports.WeekGrid(c.Param("id"), c.Query("batchId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ExportGenerated(string(format))
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

type enqueueExportRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	BatchID   string `json:"batch_id"`
	Format    string `json:"format" binding:"required"`
}

// Enqueue godoc
// @Summary Queue a background export
// @Tags exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body enqueueExportRequest true "export request"
// @Success 202 {object} response.Envelope{data=service.ExportJob}
// @Router /exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req enqueueExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session_id and format are required"))
		return
	}

	job, err := h.jobs.Enqueue(req.SessionID, req.BatchID, service.ExportFormat(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ExportGenerated(req.Format)
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Job godoc
// @Summary Export job status and download token
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Param jobId path string true "export job id"
// @Success 200 {object} response.Envelope{data=service.ExportJob}
// @Router /exports/{jobId} [get]
func (h *ExportHandler) Job(c *gin.Context) {
	job, err := h.jobs.Job(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Jobs godoc
// @Summary List export jobs, newest first
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]service.ExportJob}
// @Router /exports [get]
func (h *ExportHandler) Jobs(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.jobs.Jobs(), nil)
}

// Fetch godoc
// @Summary Download a completed export by signed token
// @Tags exports
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "signed download token"
// @Success 200 {file} binary
// @Router /downloads [get]
func (h *ExportHandler) Fetch(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, relPath, err := h.jobs.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+baseName(relPath)+`"`)
	c.Header("Content-Type", contentTypeFor(relPath))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("export download interrupted", zap.Error(err))
	}
}

func baseName(relPath string) string {
	return filepath.Base(relPath)
}

func contentTypeFor(relPath string) string {
	if strings.HasSuffix(relPath, ".pdf") {
		return "application/pdf"
	}
	return "text/csv"
}
