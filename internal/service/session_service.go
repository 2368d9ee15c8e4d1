package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/internal/timetable"
	"github.com/arka-edu/timetable-api/pkg/config"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

// TimetableStore is the persistence boundary for committed weekly templates.
type TimetableStore interface {
	ListWeek(ctx context.Context, batchID string) ([]models.TimetableEntry, error)
	SaveWeek(ctx context.Context, batchID string, entries []models.TimetableEntry, committedAt time.Time) error
}

// editingSession holds one in-memory working copy of a weekly template. All
// access goes through its mutex; the scheduling core below assumes a single
// writer and this lock is where that assumption is enforced.
type editingSession struct {
	mu        sync.Mutex
	id        string
	batchID   string
	store     *timetable.EntryStore
	history   *timetable.History
	resolver  *timetable.Resolver
	createdAt time.Time
	dirty     bool
}

// SessionInfo is the API-facing view of an editing session.
type SessionInfo struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id,omitempty"`
	EntryCount int       `json:"entry_count"`
	CanUndo    bool      `json:"can_undo"`
	CanRedo    bool      `json:"can_redo"`
	Dirty      bool      `json:"dirty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddEntryRequest places a new entry into a session's grid.
type AddEntryRequest struct {
	Day        string `json:"day" validate:"required"`
	Period     int    `json:"period" validate:"required,min=1"`
	BatchID    string `json:"batch_id" validate:"required"`
	TeacherID  string `json:"teacher_id"`
	SubjectID  string `json:"subject_id"`
	FacilityID string `json:"facility_id"`
}

// MoveEntryRequest relocates an existing entry to a new slot.
type MoveEntryRequest struct {
	Day    string `json:"day" validate:"required"`
	Period int    `json:"period" validate:"required,min=1"`
}

// HistoryResult reports whether an undo/redo applied and what it reverted.
type HistoryResult struct {
	Applied     bool   `json:"applied"`
	Description string `json:"description,omitempty"`
}

// SessionService owns the registry of editing sessions. Sessions are
// independent: two sessions for different batches can be mutated
// concurrently, but each session serializes its own mutations.
type SessionService struct {
	repo     TimetableStore
	validate *validator.Validate
	logger   *zap.Logger
	cfg      config.TimetableConfig

	mu       sync.RWMutex
	sessions map[string]*editingSession
}

// NewSessionService creates the session registry.
func NewSessionService(repo TimetableStore, cfg config.TimetableConfig, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:     repo,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
		sessions: make(map[string]*editingSession),
	}
}

// Open starts an editing session seeded from the committed week for the
// batch scope. An empty batchID opens the whole institute week.
func (s *SessionService) Open(ctx context.Context, batchID string) (SessionInfo, error) {
	entries, err := s.repo.ListWeek(ctx, batchID)
	if err != nil {
		return SessionInfo{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed week")
	}

	store := timetable.NewEntryStore(s.cfg.PeriodsPerDay)
	for _, entry := range entries {
		if _, err := store.Add(entry); err != nil {
			// Committed data that no longer passes validation is logged
			// and dropped rather than blocking the session.
			s.logger.Warn("skipping committed entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err))
		}
	}

	sess := &editingSession{
		id:        uuid.NewString(),
		batchID:   batchID,
		store:     store,
		history:   timetable.NewHistory(store),
		resolver:  timetable.NewResolver(),
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("editing session opened",
		zap.String("session_id", sess.id),
		zap.String("batch_id", batchID),
		zap.Int("entries", store.Len()))
	return s.info(sess), nil
}

// Get returns the current state of one session.
func (s *SessionService) Get(sessionID string) (SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.info(sess), nil
}

// List returns every open session sorted by creation time.
func (s *SessionService) List() []SessionInfo {
	s.mu.RLock()
	sessions := make([]*editingSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		infos = append(infos, s.info(sess))
		sess.mu.Unlock()
	}
	sortSessionInfos(infos)
	return infos
}

// Close discards a session and any uncommitted changes in it.
func (s *SessionService) Close(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	delete(s.sessions, sessionID)
	s.logger.Info("editing session closed", zap.String("session_id", sessionID))
	return nil
}

// AddEntry validates and places a new entry, recording it for undo.
func (s *SessionService) AddEntry(sessionID string, req AddEntryRequest) (models.TimetableEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.TimetableEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return models.TimetableEntry{}, appErrors.Clone(appErrors.ErrInvalidSlot, "unknown day "+req.Day)
	}

	entry := models.TimetableEntry{
		Slot:       models.Slot{Day: day, Period: req.Period},
		BatchID:    req.BatchID,
		TeacherID:  req.TeacherID,
		SubjectID:  req.SubjectID,
		FacilityID: req.FacilityID,
	}

	var out models.TimetableEntry
	err := s.with(sessionID, func(sess *editingSession) error {
		id, err := sess.history.Add(entry)
		if err != nil {
			return err
		}
		sess.dirty = true
		out, _ = sess.store.Get(id)
		return nil
	})
	return out, err
}

// RemoveEntry deletes an entry, recording it for undo.
func (s *SessionService) RemoveEntry(sessionID, entryID string) error {
	return s.with(sessionID, func(sess *editingSession) error {
		if err := sess.history.Remove(entryID); err != nil {
			return err
		}
		sess.dirty = true
		return nil
	})
}

// MoveEntry relocates an entry to a new slot, recording it for undo.
func (s *SessionService) MoveEntry(sessionID, entryID string, req MoveEntryRequest) (models.TimetableEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.TimetableEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return models.TimetableEntry{}, appErrors.Clone(appErrors.ErrInvalidSlot, "unknown day "+req.Day)
	}

	var out models.TimetableEntry
	err := s.with(sessionID, func(sess *editingSession) error {
		if err := sess.history.Move(entryID, models.Slot{Day: day, Period: req.Period}); err != nil {
			return err
		}
		sess.dirty = true
		out, _ = sess.store.Get(entryID)
		return nil
	})
	return out, err
}

// Entries queries a session's grid. Zero-valued filter fields match all.
func (s *SessionService) Entries(sessionID string, filter models.EntryFilter) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	err := s.with(sessionID, func(sess *editingSession) error {
		out = sess.store.Query(filter).Collect()
		return nil
	})
	return out, err
}

// CanPlace probes slot legality without mutating the grid. A nil return
// means the placement would succeed.
func (s *SessionService) CanPlace(sessionID string, req AddEntryRequest, ignoreEntryID string) error {
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidSlot, "unknown day "+req.Day)
	}
	entry := models.TimetableEntry{
		Slot:       models.Slot{Day: day, Period: req.Period},
		BatchID:    req.BatchID,
		TeacherID:  req.TeacherID,
		FacilityID: req.FacilityID,
	}
	return s.with(sessionID, func(sess *editingSession) error {
		return sess.store.CanPlace(entry, ignoreEntryID)
	})
}

// Undo reverts the most recent mutation. Applied is false on an empty
// undo stack; that is not an error.
func (s *SessionService) Undo(sessionID string) (HistoryResult, error) {
	var out HistoryResult
	err := s.with(sessionID, func(sess *editingSession) error {
		out.Description = sess.history.LastAction()
		out.Applied = sess.history.Undo()
		if out.Applied {
			sess.dirty = true
		} else {
			out.Description = ""
		}
		return nil
	})
	return out, err
}

// Redo re-applies the most recently undone mutation.
func (s *SessionService) Redo(sessionID string) (HistoryResult, error) {
	var out HistoryResult
	err := s.with(sessionID, func(sess *editingSession) error {
		out.Description = sess.history.NextAction()
		out.Applied = sess.history.Redo()
		if out.Applied {
			sess.dirty = true
		} else {
			out.Description = ""
		}
		return nil
	})
	return out, err
}

// HistoryLog returns the applied mutation log oldest-first, with the
// current undo/redo availability.
type HistoryLog struct {
	Commands []timetable.Command `json:"commands"`
	CanUndo  bool                `json:"can_undo"`
	CanRedo  bool                `json:"can_redo"`
}

// History returns the session's applied mutation log.
func (s *SessionService) History(sessionID string) (HistoryLog, error) {
	var out HistoryLog
	err := s.with(sessionID, func(sess *editingSession) error {
		out.Commands = sess.history.Log()
		out.CanUndo = sess.history.CanUndo()
		out.CanRedo = sess.history.CanRedo()
		return nil
	})
	return out, err
}

// Conflicts runs full-grid conflict detection over the session, including
// advisory overload checks against the teacher roster.
func (s *SessionService) Conflicts(sessionID string, loads []models.TeacherLoad) ([]models.Conflict, error) {
	var out []models.Conflict
	err := s.with(sessionID, func(sess *editingSession) error {
		out = timetable.DetectConflicts(sess.store.Entries(), timetable.DetectOptions{
			Loads:             loads,
			WorkingDayDivisor: s.cfg.WorkingDayDivisor,
		})
		return nil
	})
	return out, err
}

// Commit persists the session's grid as the new committed week for its
// batch scope. The session stays open for further editing.
func (s *SessionService) Commit(ctx context.Context, sessionID string) (SessionInfo, error) {
	var info SessionInfo
	err := s.with(sessionID, func(sess *editingSession) error {
		if err := s.repo.SaveWeek(ctx, sess.batchID, sess.store.Entries(), time.Now()); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit week")
		}
		sess.dirty = false
		info = s.info(sess)
		s.logger.Info("session committed",
			zap.String("session_id", sess.id),
			zap.String("batch_id", sess.batchID),
			zap.Int("entries", sess.store.Len()))
		return nil
	})
	return info, err
}

// session looks a session up without locking it.
func (s *SessionService) session(sessionID string) (*editingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return sess, nil
}

// with runs fn under the session's lock and maps core errors onto the API
// error taxonomy. Sibling services in this package use it for any
// session-scoped work.
func (s *SessionService) with(sessionID string, fn func(sess *editingSession) error) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return translateCoreError(fn(sess))
}

func (s *SessionService) info(sess *editingSession) SessionInfo {
	return SessionInfo{
		ID:         sess.id,
		BatchID:    sess.batchID,
		EntryCount: sess.store.Len(),
		CanUndo:    sess.history.CanUndo(),
		CanRedo:    sess.history.CanRedo(),
		Dirty:      sess.dirty,
		CreatedAt:  sess.createdAt,
	}
}

func sortSessionInfos(infos []SessionInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
}

// translateCoreError maps the scheduling core's typed errors onto the
// HTTP-aware taxonomy. Errors that already carry a status pass through.
func translateCoreError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var notFound *timetable.NotFoundError
	if errors.As(err, &notFound) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound.Error())
	}
	var absenceNotFound *timetable.AbsenceNotFoundError
	if errors.As(err, &absenceNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, absenceNotFound.Error())
	}
	var invalidSlot *timetable.InvalidSlotError
	if errors.As(err, &invalidSlot) {
		return appErrors.Clone(appErrors.ErrInvalidSlot, invalidSlot.Error())
	}
	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		return appErrors.Clone(appErrors.ErrConflict, conflict.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
}
