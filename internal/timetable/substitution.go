package timetable

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arka-edu/timetable-api/internal/models"
)

// AbsenceNotFoundError is returned for operations on an unknown absence id.
type AbsenceNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *AbsenceNotFoundError) Error() string {
	return fmt.Sprintf("absence %s not found", e.ID)
}

// Resolver owns the absence and substitution state for one editing session.
// Cancelling an absence cascades to its assignments atomically; the
// resolver never leaves orphaned substitution state behind.
type Resolver struct {
	absences    map[string]models.TeacherAbsence
	assignments map[string]models.SubstitutionAssignment
}

// NewResolver builds an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		absences:    make(map[string]models.TeacherAbsence),
		assignments: make(map[string]models.SubstitutionAssignment),
	}
}

// MarkAbsent records a teacher absence and returns it with its assigned id.
func (r *Resolver) MarkAbsent(absence models.TeacherAbsence) models.TeacherAbsence {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.AbsenceType == "" {
		absence.AbsenceType = models.AbsenceFullDay
	}
	r.absences[absence.ID] = absence
	return absence
}

// Absence returns the absence with the given id.
func (r *Resolver) Absence(id string) (models.TeacherAbsence, bool) {
	a, ok := r.absences[id]
	return a, ok
}

// Absences lists recorded absences sorted by date then teacher.
func (r *Resolver) Absences() []models.TeacherAbsence {
	out := make([]models.TeacherAbsence, 0, len(r.absences))
	for _, a := range r.absences {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	return out
}

// CancelAbsence removes the absence and every assignment referencing it.
// The cascade is atomic: the validation happens before any state changes,
// so either everything is removed or nothing is.
func (r *Resolver) CancelAbsence(id string) error {
	if _, ok := r.absences[id]; !ok {
		return &AbsenceNotFoundError{ID: id}
	}
	delete(r.absences, id)
	for key, assignment := range r.assignments {
		if assignment.AbsenceID == id {
			delete(r.assignments, key)
		}
	}
	return nil
}

// AffectedEntries lists the store entries the absence knocks out: the
// absent teacher's entries on the absence date's weekday, restricted to the
// absence's periods when partial. Sorted by period ascending.
func (r *Resolver) AffectedEntries(store *EntryStore, absence models.TeacherAbsence) []models.TimetableEntry {
	day, ok := models.DayOf(absence.Date)
	if !ok {
		return nil
	}
	var out []models.TimetableEntry
	it := store.Query(models.EntryFilter{TeacherID: absence.TeacherID, Day: day})
	for {
		entry, more := it.Next()
		if !more {
			break
		}
		if absence.Covers(entry.Slot.Period) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Period < out[j].Slot.Period })
	return out
}

// EligibleSubstitutes finds teachers free to cover (day, period): anyone
// except the absent teacher who has no entry in that slot and lists the day
// among their working days. Candidates teaching the original entry's
// subject are flagged SameSubject but not reordered; ranking is advisory
// and the caller chooses.
func (r *Resolver) EligibleSubstitutes(store *EntryStore, loads []models.TeacherLoad, day models.Day, period int, excludeTeacherID, subjectID string) []models.SubstituteCandidate {
	var out []models.SubstituteCandidate
	for _, load := range loads {
		if load.TeacherID == excludeTeacherID {
			continue
		}
		if !load.WorksOn(day) {
			continue
		}
		it := store.Query(models.EntryFilter{TeacherID: load.TeacherID, Day: day, Period: period})
		if _, busy := it.Next(); busy {
			continue
		}
		out = append(out, models.SubstituteCandidate{
			TeacherLoad: load,
			SameSubject: load.TeachesSubject(subjectID),
		})
	}
	return out
}

// Assign covers one period of an absence with a substitute. Upserts on the
// (absence, period, date) key: assigning twice for the same period replaces
// the earlier substitute instead of duplicating.
func (r *Resolver) Assign(absenceID string, period int, substituteTeacherID, batchID string) (models.SubstitutionAssignment, error) {
	absence, ok := r.absences[absenceID]
	if !ok {
		return models.SubstitutionAssignment{}, &AbsenceNotFoundError{ID: absenceID}
	}
	if !absence.Covers(period) {
		return models.SubstitutionAssignment{}, fmt.Errorf("period %d not covered by absence %s", period, absenceID)
	}
	key := assignmentKey(absenceID, absence.Date, period)
	assignment := models.SubstitutionAssignment{
		ID:                  uuid.NewString(),
		AbsenceID:           absenceID,
		OriginalTeacherID:   absence.TeacherID,
		SubstituteTeacherID: substituteTeacherID,
		Date:                absence.Date,
		Period:              period,
		BatchID:             batchID,
		Status:              "ASSIGNED",
	}
	if prior, exists := r.assignments[key]; exists {
		assignment.ID = prior.ID
	}
	r.assignments[key] = assignment
	return assignment, nil
}

// Assignments lists the assignments for one absence sorted by period.
func (r *Resolver) Assignments(absenceID string) []models.SubstitutionAssignment {
	var out []models.SubstitutionAssignment
	for _, a := range r.assignments {
		if a.AbsenceID == absenceID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Coverage reports how much of the absence's affected schedule is covered:
// ABSENT with no assignments, FULLY_COVERED when every affected period has
// one, PARTIALLY_COVERED in between. Removing assignments regresses the
// state accordingly.
func (r *Resolver) Coverage(store *EntryStore, absenceID string) (models.CoverageStatus, error) {
	absence, ok := r.absences[absenceID]
	if !ok {
		return "", &AbsenceNotFoundError{ID: absenceID}
	}
	affected := r.AffectedEntries(store, absence)
	assignments := r.Assignments(absenceID)
	if len(assignments) == 0 {
		return models.CoverageNone, nil
	}
	covered := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		covered[a.Period] = true
	}
	missing := 0
	for _, entry := range affected {
		if !covered[entry.Slot.Period] {
			missing++
		}
	}
	if missing == 0 {
		return models.CoverageFull, nil
	}
	return models.CoveragePartial, nil
}

// Report assembles the absence, its coverage, and its assignments.
func (r *Resolver) Report(store *EntryStore, absenceID string) (models.AbsenceReport, error) {
	absence, ok := r.absences[absenceID]
	if !ok {
		return models.AbsenceReport{}, &AbsenceNotFoundError{ID: absenceID}
	}
	status, err := r.Coverage(store, absenceID)
	if err != nil {
		return models.AbsenceReport{}, err
	}
	return models.AbsenceReport{
		Absence:     absence,
		Status:      status,
		Assignments: r.Assignments(absenceID),
	}, nil
}

func assignmentKey(absenceID string, date time.Time, period int) string {
	return fmt.Sprintf("%s|%s|%d", absenceID, date.Format(dateKeyLayout), period)
}
