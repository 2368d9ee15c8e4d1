package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/service"
	"github.com/arka-edu/timetable-api/pkg/config"
)

type timetableStoreMock struct {
	week []models.TimetableEntry
}

func (m *timetableStoreMock) ListWeek(_ context.Context, _ string) ([]models.TimetableEntry, error) {
	return m.week, nil
}

func (m *timetableStoreMock) SaveWeek(_ context.Context, _ string, _ []models.TimetableEntry, _ time.Time) error {
	return nil
}

func newTestSessionHandler() (*SessionHandler, *service.SessionService) {
	cfg := config.TimetableConfig{
		PeriodsPerDay:     8,
		WorkingDayDivisor: 6,
		FirstPeriodStart:  "08:00",
		PeriodLength:      45 * time.Minute,
	}
	sessions := service.NewSessionService(&timetableStoreMock{}, cfg, nil, nil)
	return NewSessionHandler(sessions, nil, nil, nil, nil), sessions
}

func openSession(t *testing.T, sessions *service.SessionService) string {
	t.Helper()
	info, err := sessions.Open(context.Background(), "b-10a")
	require.NoError(t, err)
	return info.ID
}

func TestSessionHandlerOpenReturnsCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTestSessionHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(openSessionRequest{BatchID: "b-10a"})
	req, _ := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Open(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data service.SessionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "b-10a", envelope.Data.BatchID)
}

func TestSessionHandlerAddEntryInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, sessions := newTestSessionHandler()
	id := openSession(t, sessions)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/"+id+"/entries", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler.AddEntry(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerAddEntryClashReturnsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, sessions := newTestSessionHandler()
	id := openSession(t, sessions)
	_, err := sessions.AddEntry(id, service.AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10a", TeacherID: "t-anita",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10b", TeacherID: "t-anita",
	})
	req, _ := http.NewRequest(http.MethodPost, "/sessions/"+id+"/entries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler.AddEntry(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionHandlerCanPlaceReportsClashWithoutMutating(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, sessions := newTestSessionHandler()
	id := openSession(t, sessions)
	_, err := sessions.AddEntry(id, service.AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10a", TeacherID: "t-anita",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10b", TeacherID: "t-anita",
	})
	req, _ := http.NewRequest(http.MethodPost, "/sessions/"+id+"/can-place", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler.CanPlace(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data canPlaceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Allowed)
	assert.NotEmpty(t, envelope.Data.Reason)

	entries, err := sessions.Entries(id, models.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSessionHandlerUnknownSessionIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTestSessionHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerUndoEmptyStackIsNoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, sessions := newTestSessionHandler()
	id := openSession(t, sessions)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/"+id+"/undo", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler.Undo(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Applied)
}
