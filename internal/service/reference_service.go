package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/repository"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

// TeacherLoadLister reads the teacher roster with workload data.
type TeacherLoadLister interface {
	List(ctx context.Context) ([]models.TeacherLoad, error)
	FindByID(ctx context.Context, teacherID string) (*models.TeacherLoad, error)
}

// HolidayLister reads the holiday calendar.
type HolidayLister interface {
	List(ctx context.Context) ([]models.Holiday, error)
}

// ExamBlockLister reads active exam blocks.
type ExamBlockLister interface {
	ListActive(ctx context.Context, today time.Time) ([]models.ExamBlock, error)
}

// ReferenceCache is the cache-aside store for reference datasets.
type ReferenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReferenceService serves the read-only datasets every scheduling session
// consults: the teacher roster, the holiday calendar, and active exam
// blocks. Reads go through the cache; a cache failure falls back to the
// database rather than failing the request.
type ReferenceService struct {
	teachers TeacherLoadLister
	holidays HolidayLister
	exams    ExamBlockLister
	cache    ReferenceCache
	ttl      time.Duration
	metrics  *Metrics
	logger   *zap.Logger
}

// NewReferenceService constructs the reference data service.
func NewReferenceService(teachers TeacherLoadLister, holidays HolidayLister, exams ExamBlockLister, cache ReferenceCache, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		teachers: teachers,
		holidays: holidays,
		exams:    exams,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// WithMetrics enables cache hit/miss instrumentation.
func (s *ReferenceService) WithMetrics(m *Metrics) *ReferenceService {
	s.metrics = m
	return s
}

// TeacherLoads returns the active teacher roster.
func (s *ReferenceService) TeacherLoads(ctx context.Context) ([]models.TeacherLoad, error) {
	var loads []models.TeacherLoad
	if s.cached(ctx, repository.CacheKeyTeacherLoads, &loads) {
		return loads, nil
	}
	loads, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher roster")
	}
	s.store(ctx, repository.CacheKeyTeacherLoads, loads)
	return loads, nil
}

// TeacherLoad returns one teacher's load, bypassing the roster cache.
func (s *ReferenceService) TeacherLoad(ctx context.Context, teacherID string) (*models.TeacherLoad, error) {
	load, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return load, nil
}

// Holidays returns the full holiday calendar.
func (s *ReferenceService) Holidays(ctx context.Context) ([]models.Holiday, error) {
	var holidays []models.Holiday
	if s.cached(ctx, repository.CacheKeyHolidays, &holidays) {
		return holidays, nil
	}
	holidays, err := s.holidays.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	s.store(ctx, repository.CacheKeyHolidays, holidays)
	return holidays, nil
}

// ExamBlocks returns the exam blocks active as of today.
func (s *ReferenceService) ExamBlocks(ctx context.Context) ([]models.ExamBlock, error) {
	var blocks []models.ExamBlock
	if s.cached(ctx, repository.CacheKeyExamBlocks, &blocks) {
		return blocks, nil
	}
	blocks, err := s.exams.ListActive(ctx, time.Now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam blocks")
	}
	s.store(ctx, repository.CacheKeyExamBlocks, blocks)
	return blocks, nil
}

func (s *ReferenceService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if s.metrics != nil {
		s.metrics.CacheLookup(key, err == nil)
	}
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *ReferenceService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
}
