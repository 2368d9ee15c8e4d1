package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/service"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// ReferenceHandler exposes the read-only datasets scheduling works
// against: the teacher roster, holidays, and exam blocks.
type ReferenceHandler struct {
	refs   *service.ReferenceService
	logger *zap.Logger
}

// NewReferenceHandler constructs the reference handler.
func NewReferenceHandler(refs *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceHandler{refs: refs, logger: logger}
}

// TeacherLoads godoc
// @Summary Active teacher roster with workload data
// @Tags reference
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.TeacherLoad}
// @Router /reference/teachers [get]
func (h *ReferenceHandler) TeacherLoads(c *gin.Context) {
	loads, err := h.refs.TeacherLoads(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loads, nil)
}

// TeacherLoad godoc
// @Summary One teacher's workload
// @Tags reference
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "teacher id"
// @Success 200 {object} response.Envelope{data=models.TeacherLoad}
// @Router /reference/teachers/{teacherId} [get]
func (h *ReferenceHandler) TeacherLoad(c *gin.Context) {
	load, err := h.refs.TeacherLoad(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, load, nil)
}

// Holidays godoc
// @Summary Holiday calendar
// @Tags reference
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Holiday}
// @Router /reference/holidays [get]
func (h *ReferenceHandler) Holidays(c *gin.Context) {
	holidays, err := h.refs.Holidays(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// ExamBlocks godoc
// @Summary Active exam blocks
// @Tags reference
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.ExamBlock}
// @Router /reference/exam-blocks [get]
func (h *ReferenceHandler) ExamBlocks(c *gin.Context) {
	blocks, err := h.refs.ExamBlocks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}
