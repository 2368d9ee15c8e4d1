package models

import "time"

// ExamBlockScope limits which batches an exam block applies to.
type ExamBlockScope string

const (
	ScopeInstitution ExamBlockScope = "INSTITUTION"
	ScopeCourse      ExamBlockScope = "COURSE"
	ScopeClass       ExamBlockScope = "CLASS"
	ScopeBatch       ExamBlockScope = "BATCH"
)

// ExamBlockDateType selects how an exam block's dates are expressed.
type ExamBlockDateType string

const (
	DateSingleDay ExamBlockDateType = "SINGLE_DAY"
	DateMultiDay  ExamBlockDateType = "MULTI_DAY"
	DateRecurring ExamBlockDateType = "RECURRING"
)

// ExamBlockTimeType selects which periods of a matched day are blocked.
type ExamBlockTimeType string

const (
	TimeFullDay   ExamBlockTimeType = "FULL_DAY"
	TimeTimeRange ExamBlockTimeType = "TIME_RANGE"
	TimePeriods   ExamBlockTimeType = "PERIODS"
)

// RecurringConfig generates blocked dates from a weekday and a date range.
type RecurringConfig struct {
	DayOfWeek Day       `json:"day_of_week"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ExamBlock defines a blackout window that suppresses regular scheduling.
// Read-only during a scheduling session; creation and editing happen in the
// exam administration module.
type ExamBlock struct {
	ID         string            `db:"id" json:"id"`
	Name       string            `db:"name" json:"name"`
	ExamTypeID string            `db:"exam_type_id" json:"exam_type_id"`
	ScopeType  ExamBlockScope    `db:"scope_type" json:"scope_type"`
	ScopeID    string            `db:"scope_id" json:"scope_id,omitempty"`
	DateType   ExamBlockDateType `db:"date_type" json:"date_type"`
	Dates      []time.Time       `json:"dates,omitempty"`
	Recurring  *RecurringConfig  `json:"recurring,omitempty"`
	TimeType   ExamBlockTimeType `db:"time_type" json:"time_type"`
	StartTime  string            `db:"start_time" json:"start_time,omitempty"`
	EndTime    string            `db:"end_time" json:"end_time,omitempty"`
	Periods    []int             `json:"periods,omitempty"`
}

// Holiday maps a calendar date to a label. Holidays take precedence over
// every exam block.
type Holiday struct {
	Date time.Time `db:"date" json:"date"`
	Name string    `db:"name" json:"name"`
}

// BatchScope carries the identifiers the overlay needs to match an exam
// block's scope against a batch. Existence validation is the caller's job.
type BatchScope struct {
	BatchID  string `form:"batchId" json:"batch_id"`
	ClassID  string `form:"classId" json:"class_id"`
	CourseID string `form:"courseId" json:"course_id"`
}

// SlotBlock is the overlay's verdict for one (date, period, batch) probe.
type SlotBlock struct {
	Blocked    bool   `json:"blocked"`
	BlockName  string `json:"block_name,omitempty"`
	ExamTypeID string `json:"exam_type_id,omitempty"`
	// Holiday is set when the date itself is a holiday; exam blocks are
	// not evaluated in that case.
	Holiday string `json:"holiday,omitempty"`
}
