package models

import "time"

// AbsenceType distinguishes whole-day absences from period-level ones.
type AbsenceType string

const (
	AbsenceFullDay AbsenceType = "FULL_DAY"
	AbsencePartial AbsenceType = "PARTIAL"
)

// CoverageStatus tracks how far an absence's affected periods are covered
// by substitution assignments.
type CoverageStatus string

const (
	CoverageNone    CoverageStatus = "ABSENT"
	CoveragePartial CoverageStatus = "PARTIALLY_COVERED"
	CoverageFull    CoverageStatus = "FULLY_COVERED"
)

// TeacherAbsence records that a teacher cannot teach on a date, either all
// day or for the listed periods.
type TeacherAbsence struct {
	ID          string      `json:"id"`
	TeacherID   string      `json:"teacher_id"`
	Date        time.Time   `json:"date"`
	AbsenceType AbsenceType `json:"absence_type"`
	Periods     []int       `json:"periods,omitempty"`
}

// Covers reports whether the absence includes the given period.
func (a TeacherAbsence) Covers(period int) bool {
	if a.AbsenceType == AbsenceFullDay {
		return true
	}
	for _, p := range a.Periods {
		if p == period {
			return true
		}
	}
	return false
}

// SubstitutionAssignment covers one affected period of an absence with a
// replacement teacher. At most one assignment exists per
// (absence, period, date); re-assigning overwrites.
type SubstitutionAssignment struct {
	ID                  string    `json:"id"`
	AbsenceID           string    `json:"absence_id"`
	OriginalTeacherID   string    `json:"original_teacher_id"`
	SubstituteTeacherID string    `json:"substitute_teacher_id"`
	Date                time.Time `json:"date"`
	Period              int       `json:"period"`
	BatchID             string    `json:"batch_id"`
	Status              string    `json:"status"`
}

// AbsenceReport pairs an absence with its coverage state for API responses.
type AbsenceReport struct {
	Absence     TeacherAbsence           `json:"absence"`
	Status      CoverageStatus           `json:"status"`
	Assignments []SubstitutionAssignment `json:"assignments"`
}
