package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/service"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// AbsenceHandler exposes teacher absences and substitute assignment.
type AbsenceHandler struct {
	subs   *service.SubstitutionService
	logger *zap.Logger
}

// NewAbsenceHandler constructs the absence handler.
func NewAbsenceHandler(subs *service.SubstitutionService, logger *zap.Logger) *AbsenceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceHandler{subs: subs, logger: logger}
}

// MarkAbsent godoc
// @Summary Record a teacher absence
// @Tags absences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param request body service.MarkAbsentRequest true "absence"
// @Success 201 {object} response.Envelope{data=models.AbsenceReport}
// @Router /sessions/{id}/absences [post]
func (h *AbsenceHandler) MarkAbsent(c *gin.Context) {
	var req service.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	report, err := h.subs.MarkAbsent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List the session's recorded absences
// @Tags absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=[]models.TeacherAbsence}
// @Router /sessions/{id}/absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	absences, err := h.subs.Absences(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, nil)
}

// Report godoc
// @Summary Absence coverage report
// @Tags absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param absenceId path string true "absence id"
// @Success 200 {object} response.Envelope{data=models.AbsenceReport}
// @Router /sessions/{id}/absences/{absenceId} [get]
func (h *AbsenceHandler) Report(c *gin.Context) {
	report, err := h.subs.Report(c.Param("id"), c.Param("absenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Affected godoc
// @Summary Entries knocked out by an absence
// @Tags absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param absenceId path string true "absence id"
// @Success 200 {object} response.Envelope{data=[]models.TimetableEntry}
// @Router /sessions/{id}/absences/{absenceId}/affected [get]
func (h *AbsenceHandler) Affected(c *gin.Context) {
	entries, err := h.subs.AffectedEntries(c.Param("id"), c.Param("absenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Substitutes godoc
// @Summary Teachers eligible to cover one affected period
// @Tags absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param absenceId path string true "absence id"
// @Param period query int true "period to cover"
// @Success 200 {object} response.Envelope{data=[]models.SubstituteCandidate}
// @Router /sessions/{id}/absences/{absenceId}/substitutes [get]
func (h *AbsenceHandler) Substitutes(c *gin.Context) {
	period, err := intQuery(c, "period", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	if period < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period query parameter is required"))
		return
	}

	candidates, err := h.subs.EligibleSubstitutes(c.Request.Context(), c.Param("id"), c.Param("absenceId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}

// Assign godoc
// @Summary Assign a substitute to one affected period
// @Tags absences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param absenceId path string true "absence id"
// @Param request body service.AssignSubstituteRequest true "assignment"
// @Success 200 {object} response.Envelope{data=models.SubstitutionAssignment}
// @Router /sessions/{id}/absences/{absenceId}/assignments [post]
func (h *AbsenceHandler) Assign(c *gin.Context) {
	var req service.AssignSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	assignment, err := h.subs.Assign(c.Param("id"), c.Param("absenceId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Cancel godoc
// @Summary Cancel an absence and its assignments
// @Tags absences
// @Security BearerAuth
// @Param id path string true "session id"
// @Param absenceId path string true "absence id"
// @Success 204
// @Router /sessions/{id}/absences/{absenceId} [delete]
func (h *AbsenceHandler) Cancel(c *gin.Context) {
	if err := h.subs.CancelAbsence(c.Param("id"), c.Param("absenceId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
