package models

// TimetableEntry is one scheduled occupancy of a slot. TeacherID may be
// empty for non-teaching periods (library, sports); such entries are exempt
// from teacher clash checks but still occupy the batch's slot.
type TimetableEntry struct {
	ID                  string `json:"id"`
	Slot                Slot   `json:"slot"`
	TeacherID           string `json:"teacher_id"`
	BatchID             string `json:"batch_id"`
	SubjectID           string `json:"subject_id"`
	FacilityID          string `json:"facility_id,omitempty"`
	IsSubstituted       bool   `json:"is_substituted,omitempty"`
	SubstituteTeacherID string `json:"substitute_teacher_id,omitempty"`
}

// EntryFilter narrows a store query. Zero-valued fields match everything.
type EntryFilter struct {
	TeacherID string `form:"teacherId" json:"teacher_id,omitempty"`
	BatchID   string `form:"batchId" json:"batch_id,omitempty"`
	SubjectID string `form:"subjectId" json:"subject_id,omitempty"`
	Day       Day    `form:"day" json:"day,omitempty"`
	Period    int    `form:"period" json:"period,omitempty"`
}

// Matches reports whether the entry satisfies every set field of the filter.
func (f EntryFilter) Matches(entry TimetableEntry) bool {
	if f.TeacherID != "" && entry.TeacherID != f.TeacherID {
		return false
	}
	if f.BatchID != "" && entry.BatchID != f.BatchID {
		return false
	}
	if f.SubjectID != "" && entry.SubjectID != f.SubjectID {
		return false
	}
	if f.Day != "" && entry.Slot.Day != f.Day {
		return false
	}
	if f.Period != 0 && entry.Slot.Period != f.Period {
		return false
	}
	return true
}
