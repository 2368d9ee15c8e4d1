package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/timetable"
	"github.com/arka-edu/timetable-api/pkg/config"
)

// DayBlackout is the per-period blackout verdict for one date and scope.
type DayBlackout struct {
	Date    string                   `json:"date"`
	Holiday string                   `json:"holiday,omitempty"`
	Periods map[int]models.SlotBlock `json:"periods"`
}

// BlackoutService evaluates holiday and exam-block overlays on top of the
// weekly grid. The overlay is rebuilt from reference data per call; the
// reference service's cache keeps that cheap.
type BlackoutService struct {
	refs   *ReferenceService
	cfg    config.TimetableConfig
	logger *zap.Logger
}

// NewBlackoutService constructs the blackout service.
func NewBlackoutService(refs *ReferenceService, cfg config.TimetableConfig, logger *zap.Logger) *BlackoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlackoutService{refs: refs, cfg: cfg, logger: logger}
}

// CheckSlot evaluates whether one dated slot is blocked for a batch scope.
func (s *BlackoutService) CheckSlot(ctx context.Context, date time.Time, period int, scope models.BatchScope) (models.SlotBlock, error) {
	overlay, err := s.Overlay(ctx)
	if err != nil {
		return models.SlotBlock{}, err
	}
	return overlay.IsSlotBlocked(date, period, scope), nil
}

// CheckDay evaluates every period of one date for a batch scope.
func (s *BlackoutService) CheckDay(ctx context.Context, date time.Time, scope models.BatchScope) (DayBlackout, error) {
	overlay, err := s.Overlay(ctx)
	if err != nil {
		return DayBlackout{}, err
	}

	out := DayBlackout{
		Date:    date.Format("2006-01-02"),
		Periods: make(map[int]models.SlotBlock, s.cfg.PeriodsPerDay),
	}
	if name, ok := overlay.Holiday(date); ok {
		out.Holiday = name
	}
	for period := 1; period <= s.cfg.PeriodsPerDay; period++ {
		out.Periods[period] = overlay.IsSlotBlocked(date, period, scope)
	}
	return out, nil
}

// Overlay assembles the blackout overlay from current reference data.
func (s *BlackoutService) Overlay(ctx context.Context) (*timetable.Overlay, error) {
	holidays, err := s.refs.Holidays(ctx)
	if err != nil {
		return nil, err
	}
	blocks, err := s.refs.ExamBlocks(ctx)
	if err != nil {
		return nil, err
	}
	return timetable.NewOverlay(holidays, blocks, timetable.OverlayOptions{
		FirstPeriodStart: s.cfg.FirstPeriodStart,
		PeriodLength:     s.cfg.PeriodLength,
	}), nil
}
