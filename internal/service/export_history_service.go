package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
)

// exportHistoryStore persists the most recent history entries across
// restarts. The in-memory ring remains authoritative while the process runs.
type exportHistoryStore interface {
	ReplaceRecent(ctx context.Context, entries []models.ExportHistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.ExportHistoryEntry, error)
}

// ExportHistoryService keeps a bounded, newest-first log of serializer runs.
type ExportHistoryService struct {
	repo      exportHistoryStore
	logger    *zap.Logger
	capacity  int
	persisted int

	mu      sync.Mutex
	entries []models.ExportHistoryEntry
}

func NewExportHistoryService(repo exportHistoryStore, capacity, persisted int, logger *zap.Logger) *ExportHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = 50
	}
	if persisted <= 0 || persisted > capacity {
		persisted = 10
	}
	return &ExportHistoryService{
		repo:      repo,
		logger:    logger,
		capacity:  capacity,
		persisted: persisted,
	}
}

// Load seeds the in-memory log from persisted entries. Called once at startup.
func (s *ExportHistoryService) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	entries, err := s.repo.ListRecent(ctx, s.persisted)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Record prepends an entry, evicting the oldest past capacity, and mirrors
// the most recent entries to storage. A persistence failure is logged but
// never fails the export that produced the entry.
func (s *ExportHistoryService) Record(ctx context.Context, entry models.ExportHistoryEntry) {
	s.mu.Lock()
	s.entries = append([]models.ExportHistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
	recent := make([]models.ExportHistoryEntry, 0, s.persisted)
	for i := 0; i < len(s.entries) && i < s.persisted; i++ {
		recent = append(recent, s.entries[i])
	}
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.ReplaceRecent(ctx, recent); err != nil {
		s.logger.Warn("failed to persist export history", zap.Error(err))
	}
}

// History returns the log newest-first.
func (s *ExportHistoryService) History() []models.ExportHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ExportHistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Statistics aggregates the current log.
func (s *ExportHistoryService) Statistics() models.ExportStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.ExportStatistics{PerFormat: map[string]int{}}
	for _, entry := range s.entries {
		stats.TotalExports++
		stats.TotalRecords += entry.RecordCount
		stats.PerFormat[string(entry.Format)]++
	}
	if stats.TotalExports > 0 {
		stats.AverageRecords = round2(float64(stats.TotalRecords) / float64(stats.TotalExports))
	}
	return stats
}
