package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arka-edu/timetable-api/internal/models"
)

// TimetableRepository persists the committed weekly template. Editing
// sessions seed from it and commit back to it; between those two points
// the in-memory entry store is authoritative.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

type entryRow struct {
	ID                  string         `db:"id"`
	BatchID             string         `db:"batch_id"`
	TeacherID           sql.NullString `db:"teacher_id"`
	SubjectID           sql.NullString `db:"subject_id"`
	FacilityID          sql.NullString `db:"facility_id"`
	DayOfWeek           string         `db:"day_of_week"`
	Period              int            `db:"period"`
	IsSubstituted       bool           `db:"is_substituted"`
	SubstituteTeacherID sql.NullString `db:"substitute_teacher_id"`
}

// ListWeek loads the committed entries for a batch scope's weekly template.
// An empty batchID loads the whole institute week.
func (r *TimetableRepository) ListWeek(ctx context.Context, batchID string) ([]models.TimetableEntry, error) {
	query := `SELECT id, batch_id, teacher_id, subject_id, facility_id, day_of_week, period, is_substituted, substitute_teacher_id
FROM timetable_entries`
	args := []interface{}{}
	if batchID != "" {
		query += ` WHERE batch_id = $1`
		args = append(args, batchID)
	}
	query += ` ORDER BY day_of_week ASC, period ASC`

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}

	entries := make([]models.TimetableEntry, 0, len(rows))
	for _, row := range rows {
		day, ok := models.ParseDay(row.DayOfWeek)
		if !ok {
			continue
		}
		entries = append(entries, models.TimetableEntry{
			ID:                  row.ID,
			BatchID:             row.BatchID,
			TeacherID:           row.TeacherID.String,
			SubjectID:           row.SubjectID.String,
			FacilityID:          row.FacilityID.String,
			Slot:                models.Slot{Day: day, Period: row.Period},
			IsSubstituted:       row.IsSubstituted,
			SubstituteTeacherID: row.SubstituteTeacherID.String,
		})
	}
	return entries, nil
}

// SaveWeek replaces a batch scope's committed template with the session's
// entry set in one transaction.
func (r *TimetableRepository) SaveWeek(ctx context.Context, batchID string, entries []models.TimetableEntry, committedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save week: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deleteQuery := `DELETE FROM timetable_entries`
	deleteArgs := []interface{}{}
	if batchID != "" {
		deleteQuery += ` WHERE batch_id = $1`
		deleteArgs = append(deleteArgs, batchID)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("clear committed week: %w", err)
	}

	const insertQuery = `INSERT INTO timetable_entries
(id, batch_id, teacher_id, subject_id, facility_id, day_of_week, period, is_substituted, substitute_teacher_id, committed_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10)`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insertQuery,
			entry.ID,
			entry.BatchID,
			entry.TeacherID,
			entry.SubjectID,
			entry.FacilityID,
			string(entry.Slot.Day),
			entry.Slot.Period,
			entry.IsSubstituted,
			entry.SubstituteTeacherID,
			committedAt,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save week: %w", err)
	}
	return nil
}
