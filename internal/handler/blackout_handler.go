package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/service"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/response"
)

// BlackoutHandler exposes holiday and exam-block slot probes.
type BlackoutHandler struct {
	blackout *service.BlackoutService
	logger   *zap.Logger
}

// NewBlackoutHandler constructs the blackout handler.
func NewBlackoutHandler(blackout *service.BlackoutService, logger *zap.Logger) *BlackoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlackoutHandler{blackout: blackout, logger: logger}
}

// CheckSlot godoc
// @Summary Blackout verdict for one dated slot
// @Tags blackouts
// @Produce json
// @Security BearerAuth
// @Param date query string true "date, YYYY-MM-DD"
// @Param period query int true "period number"
// @Param batchId query string false "batch scope"
// @Param classId query string false "class scope"
// @Param courseId query string false "course scope"
// @Success 200 {object} response.Envelope{data=models.SlotBlock}
// @Router /blackouts/check [get]
func (h *BlackoutHandler) CheckSlot(c *gin.Context) {
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	period, err := intQuery(c, "period", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	if period < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period query parameter is required"))
		return
	}

	block, err := h.blackout.CheckSlot(c.Request.Context(), date, period, scopeQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// CheckDay godoc
// @Summary Blackout verdicts for every period of one date
// @Tags blackouts
// @Produce json
// @Security BearerAuth
// @Param date query string true "date, YYYY-MM-DD"
// @Param batchId query string false "batch scope"
// @Param classId query string false "class scope"
// @Param courseId query string false "course scope"
// @Success 200 {object} response.Envelope{data=service.DayBlackout}
// @Router /blackouts/day [get]
func (h *BlackoutHandler) CheckDay(c *gin.Context) {
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	day, err := h.blackout.CheckDay(c.Request.Context(), date, scopeQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}
