package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

// MarkAbsentRequest records a teacher absence inside a session.
type MarkAbsentRequest struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	AbsenceType string `json:"absence_type" validate:"omitempty,oneof=FULL_DAY PARTIAL"`
	Periods     []int  `json:"periods" validate:"omitempty,dive,min=1"`
}

// AssignSubstituteRequest covers one period of an absence.
type AssignSubstituteRequest struct {
	Period              int    `json:"period" validate:"required,min=1"`
	SubstituteTeacherID string `json:"substitute_teacher_id" validate:"required"`
}

// SubstitutionService handles absences and substitute assignment for
// editing sessions. Absence state lives in the session's resolver and dies
// with the session; committed entries only carry the substitution mark.
type SubstitutionService struct {
	sessions *SessionService
	refs     *ReferenceService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSubstitutionService constructs the substitution service.
func NewSubstitutionService(sessions *SessionService, refs *ReferenceService, validate *validator.Validate, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{sessions: sessions, refs: refs, validate: validate, logger: logger}
}

// MarkAbsent records an absence and returns it with its affected entries.
func (s *SubstitutionService) MarkAbsent(ctx context.Context, sessionID string, req MarkAbsentRequest) (models.AbsenceReport, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.AbsenceReport{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return models.AbsenceReport{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if req.AbsenceType == string(models.AbsencePartial) && len(req.Periods) == 0 {
		return models.AbsenceReport{}, appErrors.Clone(appErrors.ErrValidation, "partial absence requires periods")
	}
	if _, err := s.refs.TeacherLoad(ctx, req.TeacherID); err != nil {
		return models.AbsenceReport{}, err
	}

	var report models.AbsenceReport
	err = s.sessions.with(sessionID, func(sess *editingSession) error {
		absence := sess.resolver.MarkAbsent(models.TeacherAbsence{
			TeacherID:   req.TeacherID,
			Date:        date,
			AbsenceType: models.AbsenceType(req.AbsenceType),
			Periods:     req.Periods,
		})
		r, err := sess.resolver.Report(sess.store, absence.ID)
		if err != nil {
			return err
		}
		report = r
		s.logger.Info("teacher marked absent",
			zap.String("session_id", sessionID),
			zap.String("teacher_id", req.TeacherID),
			zap.String("date", req.Date))
		return nil
	})
	return report, err
}

// Absences lists the session's recorded absences.
func (s *SubstitutionService) Absences(sessionID string) ([]models.TeacherAbsence, error) {
	var out []models.TeacherAbsence
	err := s.sessions.with(sessionID, func(sess *editingSession) error {
		out = sess.resolver.Absences()
		return nil
	})
	return out, err
}

// AffectedEntries lists the entries an absence knocks out, period ascending.
func (s *SubstitutionService) AffectedEntries(sessionID, absenceID string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	err := s.sessions.with(sessionID, func(sess *editingSession) error {
		absence, ok := sess.resolver.Absence(absenceID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		out = sess.resolver.AffectedEntries(sess.store, absence)
		return nil
	})
	return out, err
}

// EligibleSubstitutes lists teachers who could cover one affected period.
func (s *SubstitutionService) EligibleSubstitutes(ctx context.Context, sessionID, absenceID string, period int) ([]models.SubstituteCandidate, error) {
	loads, err := s.refs.TeacherLoads(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.SubstituteCandidate
	err = s.sessions.with(sessionID, func(sess *editingSession) error {
		absence, ok := sess.resolver.Absence(absenceID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		day, ok := models.DayOf(absence.Date)
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidSlot, "absence date falls outside the working week")
		}
		subjectID := ""
		for _, entry := range sess.resolver.AffectedEntries(sess.store, absence) {
			if entry.Slot.Period == period {
				subjectID = entry.SubjectID
				break
			}
		}
		out = sess.resolver.EligibleSubstitutes(sess.store, loads, day, period, absence.TeacherID, subjectID)
		return nil
	})
	return out, err
}

// Assign covers one period of an absence and marks the affected entry as
// substituted. Re-assigning the same period replaces the earlier substitute.
func (s *SubstitutionService) Assign(sessionID, absenceID string, req AssignSubstituteRequest) (models.SubstitutionAssignment, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.SubstitutionAssignment{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var out models.SubstitutionAssignment
	err := s.sessions.with(sessionID, func(sess *editingSession) error {
		absence, ok := sess.resolver.Absence(absenceID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		batchID := ""
		var affectedID string
		for _, entry := range sess.resolver.AffectedEntries(sess.store, absence) {
			if entry.Slot.Period == req.Period {
				batchID = entry.BatchID
				affectedID = entry.ID
				break
			}
		}
		assignment, err := sess.resolver.Assign(absenceID, req.Period, req.SubstituteTeacherID, batchID)
		if err != nil {
			return err
		}
		if affectedID != "" {
			if err := sess.store.SetSubstitute(affectedID, req.SubstituteTeacherID); err != nil {
				return err
			}
		}
		out = assignment
		return nil
	})
	return out, err
}

// CancelAbsence removes the absence, its assignments, and every
// substitution mark it placed on the grid. All or nothing.
func (s *SubstitutionService) CancelAbsence(sessionID, absenceID string) error {
	return s.sessions.with(sessionID, func(sess *editingSession) error {
		absence, ok := sess.resolver.Absence(absenceID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		affected := sess.resolver.AffectedEntries(sess.store, absence)
		if err := sess.resolver.CancelAbsence(absenceID); err != nil {
			return err
		}
		for _, entry := range affected {
			if entry.IsSubstituted {
				if err := sess.store.SetSubstitute(entry.ID, ""); err != nil {
					return err
				}
			}
		}
		s.logger.Info("absence cancelled",
			zap.String("session_id", sessionID),
			zap.String("absence_id", absenceID),
			zap.Int("affected_entries", len(affected)))
		return nil
	})
}

// Report returns the absence with its coverage status and assignments.
func (s *SubstitutionService) Report(sessionID, absenceID string) (models.AbsenceReport, error) {
	var out models.AbsenceReport
	err := s.sessions.with(sessionID, func(sess *editingSession) error {
		report, err := sess.resolver.Report(sess.store, absenceID)
		if err != nil {
			return err
		}
		out = report
		return nil
	})
	return out, err
}
