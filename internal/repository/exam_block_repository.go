package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arka-edu/timetable-api/internal/models"
)

// ExamBlockRepository reads exam blackout definitions. Blocks are created
// and edited by the examination module; the scheduling core only consults
// them through the overlay.
type ExamBlockRepository struct {
	db *sqlx.DB
}

// NewExamBlockRepository constructs an exam block repository.
func NewExamBlockRepository(db *sqlx.DB) *ExamBlockRepository {
	return &ExamBlockRepository{db: db}
}

type examBlockRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	ExamTypeID         string         `db:"exam_type_id"`
	ScopeType          string         `db:"scope_type"`
	ScopeID            sql.NullString `db:"scope_id"`
	DateType           string         `db:"date_type"`
	RecurringDayOfWeek sql.NullString `db:"recurring_day_of_week"`
	RecurringStartDate sql.NullTime   `db:"recurring_start_date"`
	RecurringEndDate   sql.NullTime   `db:"recurring_end_date"`
	TimeType           string         `db:"time_type"`
	StartTime          sql.NullString `db:"start_time"`
	EndTime            sql.NullString `db:"end_time"`
	Periods            pq.Int64Array  `db:"periods"`
}

// ListActive returns every exam block that can still match today or later,
// with explicit dates attached.
func (r *ExamBlockRepository) ListActive(ctx context.Context, today time.Time) ([]models.ExamBlock, error) {
	const query = `SELECT id, name, exam_type_id, scope_type, scope_id, date_type,
recurring_day_of_week, recurring_start_date, recurring_end_date,
time_type, start_time, end_time, periods
FROM exam_blocks
WHERE date_type = 'RECURRING' AND recurring_end_date >= $1
   OR id IN (SELECT exam_block_id FROM exam_block_dates WHERE date >= $1)
ORDER BY created_at ASC`
	var rows []examBlockRow
	if err := r.db.SelectContext(ctx, &rows, query, today); err != nil {
		return nil, fmt.Errorf("list exam blocks: %w", err)
	}

	blocks := make([]models.ExamBlock, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.toModel())
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return blocks, nil
	}

	dates, err := r.blockDates(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		blocks[i].Dates = dates[blocks[i].ID]
	}
	return blocks, nil
}

func (r *ExamBlockRepository) blockDates(ctx context.Context, blockIDs []string) (map[string][]time.Time, error) {
	const query = `SELECT exam_block_id, date FROM exam_block_dates WHERE exam_block_id = ANY($1) ORDER BY date ASC`
	var rows []struct {
		ExamBlockID string    `db:"exam_block_id"`
		Date        time.Time `db:"date"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(blockIDs)); err != nil {
		return nil, fmt.Errorf("list exam block dates: %w", err)
	}
	out := make(map[string][]time.Time, len(blockIDs))
	for _, row := range rows {
		out[row.ExamBlockID] = append(out[row.ExamBlockID], row.Date)
	}
	return out, nil
}

func (row examBlockRow) toModel() models.ExamBlock {
	block := models.ExamBlock{
		ID:         row.ID,
		Name:       row.Name,
		ExamTypeID: row.ExamTypeID,
		ScopeType:  models.ExamBlockScope(row.ScopeType),
		ScopeID:    row.ScopeID.String,
		DateType:   models.ExamBlockDateType(row.DateType),
		TimeType:   models.ExamBlockTimeType(row.TimeType),
		StartTime:  row.StartTime.String,
		EndTime:    row.EndTime.String,
	}
	for _, p := range row.Periods {
		block.Periods = append(block.Periods, int(p))
	}
	if block.DateType == models.DateRecurring && row.RecurringDayOfWeek.Valid {
		day, ok := models.ParseDay(row.RecurringDayOfWeek.String)
		if ok {
			block.Recurring = &models.RecurringConfig{
				DayOfWeek: day,
				StartDate: row.RecurringStartDate.Time,
				EndDate:   row.RecurringEndDate.Time,
			}
		}
	}
	return block
}
