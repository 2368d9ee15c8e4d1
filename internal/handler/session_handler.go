package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/service"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// SessionHandler exposes editing sessions and their grid mutations.
type SessionHandler struct {
	sessions *service.SessionService
	refs     *service.ReferenceService
	blackout *service.BlackoutService
	metrics  *service.Metrics
	logger   *zap.Logger
}

// NewSessionHandler constructs the session handler.
func NewSessionHandler(sessions *service.SessionService, refs *service.ReferenceService, blackout *service.BlackoutService, metrics *service.Metrics, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, refs: refs, blackout: blackout, metrics: metrics, logger: logger}
}

type openSessionRequest struct {
	BatchID string `json:"batch_id"`
}

// Open godoc
// @Summary Open an editing session seeded from the committed week
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body openSessionRequest false "optional batch scope"
// @Success 201 {object} response.Envelope{data=service.SessionInfo}
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}

	info, err := h.sessions.Open(c.Request.Context(), req.BatchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SessionOpened()
	}
	response.Created(c, info)
}

// List godoc
// @Summary List open editing sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]service.SessionInfo}
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.sessions.List(), nil)
}

// Get godoc
// @Summary Session state
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=service.SessionInfo}
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	info, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Close godoc
// @Summary Discard a session and its uncommitted changes
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SessionClosed()
	}
	response.NoContent(c)
}

// Commit godoc
// @Summary Persist the session grid as the committed week
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=service.SessionInfo}
// @Router /sessions/{id}/commit [post]
func (h *SessionHandler) Commit(c *gin.Context) {
	info, err := h.sessions.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Entries godoc
// @Summary Query the session grid
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param teacherId query string false "filter by teacher"
// @Param batchId query string false "filter by batch"
// @Param subjectId query string false "filter by subject"
// @Param day query string false "filter by day"
// @Param period query int false "filter by period"
// @Success 200 {object} response.Envelope{data=[]models.TimetableEntry}
// @Router /sessions/{id}/entries [get]
func (h *SessionHandler) Entries(c *gin.Context) {
	var filter models.EntryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	entries, err := h.sessions.Entries(c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddEntry godoc
// @Summary Place a new entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param request body service.AddEntryRequest true "entry placement"
// @Success 201 {object} response.Envelope{data=models.TimetableEntry}
// @Router /sessions/{id}/entries [post]
func (h *SessionHandler) AddEntry(c *gin.Context) {
	var req service.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	entry, err := h.sessions.AddEntry(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MutationApplied("add")
	}
	response.Created(c, entry)
}

// RemoveEntry godoc
// @Summary Remove an entry
// @Tags entries
// @Security BearerAuth
// @Param id path string true "session id"
// @Param entryId path string true "entry id"
// @Success 204
// @Router /sessions/{id}/entries/{entryId} [delete]
func (h *SessionHandler) RemoveEntry(c *gin.Context) {
	if err := h.sessions.RemoveEntry(c.Param("id"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MutationApplied("remove")
	}
	response.NoContent(c)
}

// MoveEntry godoc
// @Summary Move an entry to a new slot
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param entryId path string true "entry id"
// @Param request body service.MoveEntryRequest true "destination slot"
// @Success 200 {object} response.Envelope{data=models.TimetableEntry}
// @Router /sessions/{id}/entries/{entryId}/move [patch]
func (h *SessionHandler) MoveEntry(c *gin.Context) {
	var req service.MoveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	entry, err := h.sessions.MoveEntry(c.Param("id"), c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MutationApplied("move")
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

type canPlaceResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanPlace godoc
// @Summary Probe whether a placement would succeed
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param ignoreEntryId query string false "entry to exclude, for move previews"
// @Param date query string false "concrete date (YYYY-MM-DD) to also check blackouts"
// @Param request body service.AddEntryRequest true "candidate placement"
// @Success 200 {object} response.Envelope{data=canPlaceResponse}
// @Router /sessions/{id}/can-place [post]
func (h *SessionHandler) CanPlace(c *gin.Context) {
	var req service.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	err := h.sessions.CanPlace(c.Param("id"), req, c.Query("ignoreEntryId"))
	if err != nil {
		var appErr *appErrors.Error
		if ok := asAppError(err, &appErr); ok && appErr.Status == http.StatusNotFound {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, canPlaceResponse{Allowed: false, Reason: err.Error()}, nil)
		return
	}

	// With a concrete date the probe also consults the blackout overlay.
	if dateStr := c.Query("date"); dateStr != "" && h.blackout != nil {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		block, err := h.blackout.CheckSlot(c.Request.Context(), date, req.Period, models.BatchScope{BatchID: req.BatchID})
		if err != nil {
			response.Error(c, err)
			return
		}
		if block.Blocked {
			reason := appErrors.ErrSlotBlocked.Message
			if block.Holiday != "" {
				reason = "holiday: " + block.Holiday
			} else if block.BlockName != "" {
				reason = "exam block: " + block.BlockName
			}
			response.JSON(c, http.StatusOK, canPlaceResponse{Allowed: false, Reason: reason}, nil)
			return
		}
	}

	response.JSON(c, http.StatusOK, canPlaceResponse{Allowed: true}, nil)
}

// Undo godoc
// @Summary Revert the most recent mutation
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=service.HistoryResult}
// @Router /sessions/{id}/undo [post]
func (h *SessionHandler) Undo(c *gin.Context) {
	result, err := h.sessions.Undo(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil && result.Applied {
		h.metrics.MutationApplied("undo")
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Redo godoc
// @Summary Re-apply the most recently undone mutation
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=service.HistoryResult}
// @Router /sessions/{id}/redo [post]
func (h *SessionHandler) Redo(c *gin.Context) {
	result, err := h.sessions.Redo(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil && result.Applied {
		h.metrics.MutationApplied("redo")
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Applied mutation log with undo/redo availability
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=service.HistoryLog}
// @Router /sessions/{id}/history [get]
func (h *SessionHandler) History(c *gin.Context) {
	log, err := h.sessions.History(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Conflicts godoc
// @Summary Full-grid conflict detection, including advisory overloads
// @Tags conflicts
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} response.Envelope{data=[]models.Conflict}
// @Router /sessions/{id}/conflicts [get]
func (h *SessionHandler) Conflicts(c *gin.Context) {
	loads, err := h.refs.TeacherLoads(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	conflicts, err := h.sessions.Conflicts(c.Param("id"), loads)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ConflictsDetected(len(conflicts))
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}
