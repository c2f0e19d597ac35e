package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/jobs"
)

// ExportJobCallbacks are fired after a job reaches a terminal state.
type ExportJobCallbacks struct {
	OnComplete func(models.SerializeResult)
	OnError    func(string)
}

// ExportQueueService runs export jobs through a single-worker FIFO queue so
// that at most one serialization is in flight and a failing job never blocks
// the ones behind it.
type ExportQueueService struct {
	queue    *jobs.Queue
	exporter *ExportService
	history  *ExportHistoryService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	jobsByID  map[string]*models.ExportJob
	order     []string
	callbacks map[string]ExportJobCallbacks
}

func NewExportQueueService(exporter *ExportService, history *ExportHistoryService, metrics *MetricsService, bufferSize int, logger *zap.Logger) *ExportQueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportQueueService{
		exporter:  exporter,
		history:   history,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		jobsByID:  map[string]*models.ExportJob{},
		callbacks: map[string]ExportJobCallbacks{},
	}
	s.queue = jobs.NewQueue("exports", s.handle, jobs.QueueConfig{
		BufferSize: bufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the worker goroutine.
func (s *ExportQueueService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker and waits for the in-flight job.
func (s *ExportQueueService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a job and hands it to the queue without blocking the
// caller. The returned ID can be polled for status.
func (s *ExportQueueService) Enqueue(payload models.ExportPayload, callbacks ExportJobCallbacks) (string, error) {
	job := &models.ExportJob{
		ID:         uuid.NewString(),
		Status:     models.ExportStatusQueued,
		Payload:    payload,
		EnqueuedAt: s.now(),
	}

	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.order = append(s.order, job.ID)
	s.callbacks[job.ID] = callbacks
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "export", Enqueued: job.EnqueuedAt}); err != nil {
		s.mu.Lock()
		delete(s.jobsByID, job.ID)
		delete(s.callbacks, job.ID)
		s.order = s.order[:len(s.order)-1]
		s.mu.Unlock()
		return "", appErrors.Clone(appErrors.ErrQueueStopped, err.Error())
	}

	s.logger.Info("export job enqueued",
		zap.String("job_id", job.ID),
		zap.String("form_id", payload.FormID),
		zap.String("format", string(payload.Format)))
	return job.ID, nil
}

// Job returns a copy of the tracked job.
func (s *ExportQueueService) Job(id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobsByID[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

// QueueStatus counts tracked jobs by state.
func (s *ExportQueueService) QueueStatus() models.ExportQueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.ExportQueueStatus{}
	for _, job := range s.jobsByID {
		switch job.Status {
		case models.ExportStatusQueued:
			status.Queued++
		case models.ExportStatusProcessing:
			status.Processing++
		case models.ExportStatusCompleted:
			status.Completed++
		case models.ExportStatusFailed:
			status.Failed++
		}
		status.Total++
	}
	return status
}

// Completed returns terminal jobs, newest enqueue first.
func (s *ExportQueueService) Completed() []models.ExportJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ExportJob, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		job, ok := s.jobsByID[s.order[i]]
		if ok && job.Status.Terminal() {
			out = append(out, *job)
		}
	}
	return out
}

// ClearCompleted evicts terminal jobs from the registry and reports how many
// were removed.
func (s *ExportQueueService) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		job := s.jobsByID[id]
		if job != nil && job.Status.Terminal() {
			delete(s.jobsByID, id)
			delete(s.callbacks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *ExportQueueService) handle(ctx context.Context, queued jobs.Job) error {
	s.mu.Lock()
	job, ok := s.jobsByID[queued.ID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	started := s.now()
	job.Status = models.ExportStatusProcessing
	job.StartedAt = &started
	payload := job.Payload
	s.mu.Unlock()

	result, err := s.exporter.Serialize(payload)
	if err == nil {
		err = s.exporter.Store(queued.ID, result)
	}

	finished := s.now()

	s.mu.Lock()
	callbacks := s.callbacks[queued.ID]
	job.FinishedAt = &finished
	if err != nil {
		job.Status = models.ExportStatusFailed
		job.Error = appErrors.FromError(err).Message
	} else {
		job.Status = models.ExportStatusCompleted
		job.Result = result
	}
	status := job.Status
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordExportJob(string(status), string(payload.Format))
	}

	entry := models.ExportHistoryEntry{
		ID:        queued.ID,
		Timestamp: finished,
		Format:    payload.Format,
		Success:   err == nil,
	}
	if result != nil {
		entry.RecordCount = result.RecordCount
		entry.Filename = result.Filename
		entry.SizeBytes = result.SizeBytes
	}
	if s.history != nil {
		s.history.Record(ctx, entry)
	}

	if err != nil {
		if callbacks.OnError != nil {
			callbacks.OnError(appErrors.FromError(err).Message)
		}
		return err
	}
	if callbacks.OnComplete != nil {
		callbacks.OnComplete(*result)
	}
	return nil
}
