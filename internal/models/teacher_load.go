package models

// AllowedBatch names one batch/subject pairing a teacher may be assigned to.
type AllowedBatch struct {
	BatchID   string `db:"batch_id" json:"batch_id"`
	BatchName string `db:"batch_name" json:"batch_name"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherLoad is read-mostly reference data describing a teacher's
// availability and workload envelope. The scheduling core never mutates it.
type TeacherLoad struct {
	TeacherID       string         `db:"teacher_id" json:"teacher_id"`
	TeacherName     string         `db:"teacher_name" json:"teacher_name"`
	WorkingDays     []Day          `json:"working_days"`
	AllowedBatches  []AllowedBatch `json:"allowed_batches"`
	PeriodsPerWeek  int            `db:"periods_per_week" json:"periods_per_week"`
	AssignedPeriods int            `db:"assigned_periods" json:"assigned_periods"`
}

// WorksOn reports whether the teacher's working days include the given day.
func (t TeacherLoad) WorksOn(day Day) bool {
	for _, d := range t.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// TeachesSubject reports whether any allowed batch covers the subject.
func (t TeacherLoad) TeachesSubject(subjectID string) bool {
	if subjectID == "" {
		return false
	}
	for _, b := range t.AllowedBatches {
		if b.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// SubstituteCandidate is a TeacherLoad annotated for substitute search.
// SameSubject is advisory; candidates are not reordered by it.
type SubstituteCandidate struct {
	TeacherLoad
	SameSubject bool `json:"same_subject"`
}
