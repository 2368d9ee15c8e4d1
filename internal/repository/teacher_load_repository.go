package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arka-edu/timetable-api/internal/models"
)

// TeacherLoadRepository reads teacher availability and workload reference
// data. The scheduling core treats this as read-only; rosters are managed
// by the staff administration module.
type TeacherLoadRepository struct {
	db *sqlx.DB
}

// NewTeacherLoadRepository constructs a teacher load repository.
func NewTeacherLoadRepository(db *sqlx.DB) *TeacherLoadRepository {
	return &TeacherLoadRepository{db: db}
}

type teacherLoadRow struct {
	TeacherID       string         `db:"teacher_id"`
	TeacherName     string         `db:"teacher_name"`
	WorkingDays     pq.StringArray `db:"working_days"`
	PeriodsPerWeek  int            `db:"periods_per_week"`
	AssignedPeriods int            `db:"assigned_periods"`
}

// List returns every active teacher's load with allowed batches attached.
func (r *TeacherLoadRepository) List(ctx context.Context) ([]models.TeacherLoad, error) {
	const query = `SELECT teacher_id, teacher_name, working_days, periods_per_week, assigned_periods
FROM teacher_loads WHERE active = true ORDER BY teacher_name ASC`
	var rows []teacherLoadRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher loads: %w", err)
	}

	loads := make([]models.TeacherLoad, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		loads = append(loads, row.toModel())
		ids = append(ids, row.TeacherID)
	}
	if len(ids) == 0 {
		return loads, nil
	}

	batches, err := r.allowedBatches(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range loads {
		loads[i].AllowedBatches = batches[loads[i].TeacherID]
	}
	return loads, nil
}

// FindByID fetches one teacher's load.
func (r *TeacherLoadRepository) FindByID(ctx context.Context, teacherID string) (*models.TeacherLoad, error) {
	const query = `SELECT teacher_id, teacher_name, working_days, periods_per_week, assigned_periods
FROM teacher_loads WHERE teacher_id = $1`
	var row teacherLoadRow
	if err := r.db.GetContext(ctx, &row, query, teacherID); err != nil {
		return nil, err
	}
	load := row.toModel()

	batches, err := r.allowedBatches(ctx, []string{teacherID})
	if err != nil {
		return nil, err
	}
	load.AllowedBatches = batches[teacherID]
	return &load, nil
}

func (r *TeacherLoadRepository) allowedBatches(ctx context.Context, teacherIDs []string) (map[string][]models.AllowedBatch, error) {
	const query = `SELECT teacher_id, batch_id, batch_name, subject_id
FROM teacher_allowed_batches WHERE teacher_id = ANY($1) ORDER BY batch_name ASC`
	var rows []struct {
		TeacherID string `db:"teacher_id"`
		models.AllowedBatch
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("list allowed batches: %w", err)
	}
	out := make(map[string][]models.AllowedBatch, len(teacherIDs))
	for _, row := range rows {
		out[row.TeacherID] = append(out[row.TeacherID], row.AllowedBatch)
	}
	return out, nil
}

func (row teacherLoadRow) toModel() models.TeacherLoad {
	days := make([]models.Day, 0, len(row.WorkingDays))
	for _, raw := range row.WorkingDays {
		if day, ok := models.ParseDay(raw); ok {
			days = append(days, day)
		}
	}
	return models.TeacherLoad{
		TeacherID:       row.TeacherID,
		TeacherName:     row.TeacherName,
		WorkingDays:     days,
		PeriodsPerWeek:  row.PeriodsPerWeek,
		AssignedPeriods: row.AssignedPeriods,
	}
}
