package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/timetable"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

// CopyTarget names one destination session and the Monday its week starts
// on. The week start anchors holiday lookups for each copied entry.
type CopyTarget struct {
	SessionID string `json:"session_id" validate:"required"`
	WeekStart string `json:"week_start" validate:"required"`
}

// CopyWeekRequest replicates a source session's grid into target sessions.
type CopyWeekRequest struct {
	Targets      []CopyTarget `json:"targets" validate:"required,min=1,dive"`
	SkipHolidays bool         `json:"skip_holidays"`
}

// CopyWeekResult reports how many entries actually landed.
type CopyWeekResult struct {
	Requested int `json:"requested"`
	Copied    int `json:"copied"`
}

// ReplicationService copies one session's weekly grid into other sessions.
// Copies go through each target's normal conflict validation, so clashing
// entries are skipped rather than forced in.
type ReplicationService struct {
	sessions *SessionService
	blackout *BlackoutService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewReplicationService constructs the replication service.
func NewReplicationService(sessions *SessionService, blackout *BlackoutService, validate *validator.Validate, logger *zap.Logger) *ReplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicationService{sessions: sessions, blackout: blackout, validate: validate, logger: logger}
}

// CopyWeek replicates the source session's entries into every target.
// Substitution marks are not carried over; they belong to the source week's
// dates. Targets lock one at a time, source first, so two concurrent copies
// cannot deadlock against each other through a shared target.
func (s *ReplicationService) CopyWeek(ctx context.Context, sourceSessionID string, req CopyWeekRequest) (CopyWeekResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return CopyWeekResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	weekStarts := make([]time.Time, len(req.Targets))
	for i, target := range req.Targets {
		start, err := time.Parse("2006-01-02", target.WeekStart)
		if err != nil {
			return CopyWeekResult{}, appErrors.Clone(appErrors.ErrValidation, "week_start must be YYYY-MM-DD")
		}
		if target.SessionID == sourceSessionID {
			return CopyWeekResult{}, appErrors.Clone(appErrors.ErrValidation, "source session cannot be a copy target")
		}
		weekStarts[i] = start
	}

	var isHoliday func(time.Time) bool
	if req.SkipHolidays {
		overlay, err := s.blackout.Overlay(ctx)
		if err != nil {
			return CopyWeekResult{}, err
		}
		isHoliday = func(date time.Time) bool {
			_, ok := overlay.Holiday(date)
			return ok
		}
	}

	source, err := s.sessions.Entries(sourceSessionID, models.EntryFilter{})
	if err != nil {
		return CopyWeekResult{}, err
	}

	result := CopyWeekResult{Requested: len(source) * len(req.Targets)}
	for i, target := range req.Targets {
		err := s.sessions.with(target.SessionID, func(sess *editingSession) error {
			copied, err := timetable.CopyWeek(source, []timetable.TargetWeek{
				{WeekStart: weekStarts[i], Store: sess.store},
			}, timetable.CopyOptions{
				SkipHolidays: req.SkipHolidays,
				IsHoliday:    isHoliday,
			})
			result.Copied += copied
			if copied > 0 {
				sess.dirty = true
			}
			return err
		})
		if err != nil {
			return result, err
		}
	}

	s.logger.Info("week replicated",
		zap.String("source_session_id", sourceSessionID),
		zap.Int("targets", len(req.Targets)),
		zap.Int("requested", result.Requested),
		zap.Int("copied", result.Copied))
	return result, nil
}
