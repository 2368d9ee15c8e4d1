package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/repository"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

type countingTeacherLoads struct {
	stubTeacherLoads
	listCalls int
}

func (s *countingTeacherLoads) List(ctx context.Context) ([]models.TeacherLoad, error) {
	s.listCalls++
	return s.stubTeacherLoads.List(ctx)
}

// memoryCache speaks the same JSON round-trip contract as the redis-backed
// cache repository.
type memoryCache struct {
	values map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func TestReferenceServiceCachesTeacherLoads(t *testing.T) {
	teachers := &countingTeacherLoads{stubTeacherLoads: stubTeacherLoads{loads: []models.TeacherLoad{
		{TeacherID: "t-anita", TeacherName: "Anita Rao", PeriodsPerWeek: 24},
	}}}
	cache := newMemoryCache()
	svc := NewReferenceService(teachers, &stubHolidays{}, &stubExamBlocks{}, cache, time.Minute, nil)

	loads, err := svc.TeacherLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, 1, teachers.listCalls)
	assert.Contains(t, cache.values, repository.CacheKeyTeacherLoads)

	// Second read is served from the cache.
	loads, err = svc.TeacherLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, "t-anita", loads[0].TeacherID)
	assert.Equal(t, 1, teachers.listCalls)
}

func TestReferenceServiceFallsBackOnCacheFailure(t *testing.T) {
	teachers := &countingTeacherLoads{stubTeacherLoads: stubTeacherLoads{loads: []models.TeacherLoad{
		{TeacherID: "t-bimal"},
	}}}
	cache := newMemoryCache()
	cache.getErr = assert.AnError
	svc := NewReferenceService(teachers, &stubHolidays{}, &stubExamBlocks{}, cache, time.Minute, nil)

	loads, err := svc.TeacherLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, 1, teachers.listCalls)
}

func TestReferenceServiceNilCachePassesThrough(t *testing.T) {
	teachers := &countingTeacherLoads{stubTeacherLoads: stubTeacherLoads{loads: nil}}
	svc := NewReferenceService(teachers, &stubHolidays{}, &stubExamBlocks{}, nil, 0, nil)

	_, err := svc.TeacherLoads(context.Background())
	require.NoError(t, err)
	_, err = svc.TeacherLoads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, teachers.listCalls)
}

func TestReferenceServiceTeacherLoadNotFound(t *testing.T) {
	svc := testRefs(nil)

	_, err := svc.TeacherLoad(context.Background(), "t-missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
