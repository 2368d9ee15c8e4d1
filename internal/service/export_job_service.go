package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/pkg/config"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
	"github.com/arka-edu/timetable-api/pkg/jobs"
	"github.com/arka-edu/timetable-api/pkg/storage"
)

// Export job lifecycle states.
const (
	ExportStatusPending   = "PENDING"
	ExportStatusCompleted = "COMPLETED"
	ExportStatusFailed    = "FAILED"
)

// ExportJob tracks one queued grid export from request to download.
type ExportJob struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"session_id"`
	BatchID       string       `json:"batch_id,omitempty"`
	Format        ExportFormat `json:"format"`
	Status        string       `json:"status"`
	Filename      string       `json:"filename,omitempty"`
	DownloadToken string       `json:"download_token,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

type exportPayload struct {
	SessionID string
	BatchID   string
	Format    ExportFormat
}

// ExportJobService runs grid exports in the background: requests are
// queued, rendered by workers, written to local storage, and handed back
// through signed download tokens. Job state is in-memory and dies with the
// process; the files themselves survive until cleanup.
type ExportJobService struct {
	exports *ExportService
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	fileTTL time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	tracked map[string]*ExportJob
}

// NewExportJobService wires the export pipeline together.
func NewExportJobService(exports *ExportService, cfg config.ExportConfig, jwtSecret string, logger *zap.Logger) (*ExportJobService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := storage.NewLocalStorage(cfg.Dir)
	if err != nil {
		return nil, err
	}

	fileTTL := cfg.FileTTL
	if fileTTL <= 0 {
		fileTTL = 24 * time.Hour
	}

	s := &ExportJobService{
		exports: exports,
		store:   store,
		signer:  storage.NewSignedURLSigner(jwtSecret, cfg.URLTTL),
		fileTTL: fileTTL,
		logger:  logger,
		tracked: make(map[string]*ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s, nil
}

// Start launches the export workers and the stale-file sweeper.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.sweep(ctx)
}

// Stop drains the export workers.
func (s *ExportJobService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules an export and returns the pending job.
func (s *ExportJobService) Enqueue(sessionID, batchID string, format ExportFormat) (ExportJob, error) {
	if format != FormatCSV && format != FormatPDF {
		return ExportJob{}, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	// Fail fast on unknown sessions instead of from inside a worker.
	if _, err := s.exports.sessions.Get(sessionID); err != nil {
		return ExportJob{}, err
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		BatchID:   batchID,
		Format:    format,
		Status:    ExportStatusPending,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "export:" + string(format),
		Payload: exportPayload{SessionID: sessionID, BatchID: batchID, Format: format},
	})
	if err != nil {
		s.fail(job.ID, err)
		return ExportJob{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue unavailable")
	}
	return *job, nil
}

// Job returns the current state of one export job.
func (s *ExportJobService) Job(jobID string) (ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[jobID]
	if !ok {
		return ExportJob{}, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return *job, nil
}

// Jobs lists tracked export jobs, newest first.
func (s *ExportJobService) Jobs() []ExportJob {
	s.mu.RLock()
	out := make([]ExportJob, 0, len(s.tracked))
	for _, job := range s.tracked {
		out = append(out, *job)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Open validates a download token and opens the exported file.
func (s *ExportJobService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, relPath, nil
}

func (s *ExportJobService) process(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		s.fail(job.ID, fmt.Errorf("unexpected payload type %T", job.Payload))
		return nil
	}

	result, err := s.exports.WeekGrid(payload.SessionID, payload.BatchID, payload.Format)
	if err != nil {
		// Rendering failures are terminal; retrying cannot fix a closed
		// session or a bad format.
		s.fail(job.ID, err)
		return nil
	}

	relPath := fmt.Sprintf("%s/%s", job.ID, result.Filename)
	if _, err := s.store.Save(relPath, result.Content); err != nil {
		s.fail(job.ID, err)
		return err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return nil
	}

	now := time.Now()
	s.mu.Lock()
	if tracked, ok := s.tracked[job.ID]; ok {
		tracked.Status = ExportStatusCompleted
		tracked.Filename = result.Filename
		tracked.DownloadToken = token
		tracked.ExpiresAt = &expiresAt
		tracked.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("session_id", payload.SessionID),
		zap.String("format", string(payload.Format)))
	return nil
}

func (s *ExportJobService) fail(jobID string, err error) {
	now := time.Now()
	s.mu.Lock()
	if job, ok := s.tracked[jobID]; ok {
		job.Status = ExportStatusFailed
		job.Error = err.Error()
		job.CompletedAt = &now
	}
	s.mu.Unlock()
	s.logger.Warn("export failed", zap.String("job_id", jobID), zap.Error(err))
}

// sweep periodically removes expired export files and forgets their jobs.
func (s *ExportJobService) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.fileTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.fileTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.dropCompletedBefore(time.Now().Add(-s.fileTTL))
				s.logger.Info("expired exports removed", zap.Int("files", len(deleted)))
			}
		}
	}
}

func (s *ExportJobService) dropCompletedBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.tracked {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.tracked, id)
		}
	}
}
