package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
)

type historyStoreStub struct {
	stored     []models.ExportHistoryEntry
	replaceErr error
	listErr    error
	seeded     []models.ExportHistoryEntry
}

func (s *historyStoreStub) ReplaceRecent(_ context.Context, entries []models.ExportHistoryEntry) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.stored = entries
	return nil
}

func (s *historyStoreStub) ListRecent(_ context.Context, limit int) ([]models.ExportHistoryEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit < len(s.seeded) {
		return s.seeded[:limit], nil
	}
	return s.seeded, nil
}

func historyEntry(n int) models.ExportHistoryEntry {
	return models.ExportHistoryEntry{
		ID:          fmt.Sprintf("job-%d", n),
		Timestamp:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute),
		Format:      models.ExportFormatCSV,
		RecordCount: n,
		Success:     true,
	}
}

func TestHistoryEvictsPastCapacity(t *testing.T) {
	svc := NewExportHistoryService(nil, 5, 3, nil)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		svc.Record(ctx, historyEntry(i))
	}

	entries := svc.History()
	require.Len(t, entries, 5)
	assert.Equal(t, "job-8", entries[0].ID, "newest first")
	assert.Equal(t, "job-4", entries[4].ID, "oldest three evicted")
}

func TestHistoryDefaultLimits(t *testing.T) {
	svc := NewExportHistoryService(nil, 0, 0, nil)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		svc.Record(ctx, historyEntry(i))
	}
	assert.Len(t, svc.History(), 50)
}

func TestHistoryMirrorsRecentToStore(t *testing.T) {
	store := &historyStoreStub{}
	svc := NewExportHistoryService(store, 5, 3, nil)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		svc.Record(ctx, historyEntry(i))
	}

	require.Len(t, store.stored, 3)
	assert.Equal(t, "job-4", store.stored[0].ID)
	assert.Equal(t, "job-2", store.stored[2].ID)
}

func TestHistoryPersistenceFailureKeepsMemory(t *testing.T) {
	store := &historyStoreStub{replaceErr: fmt.Errorf("connection refused")}
	svc := NewExportHistoryService(store, 5, 3, nil)

	svc.Record(context.Background(), historyEntry(1))

	require.Len(t, svc.History(), 1)
	assert.Empty(t, store.stored)
}

func TestHistoryLoadSeedsFromStore(t *testing.T) {
	store := &historyStoreStub{seeded: []models.ExportHistoryEntry{historyEntry(3), historyEntry(2)}}
	svc := NewExportHistoryService(store, 5, 3, nil)

	require.NoError(t, svc.Load(context.Background()))

	entries := svc.History()
	require.Len(t, entries, 2)
	assert.Equal(t, "job-3", entries[0].ID)
}

func TestHistoryStatistics(t *testing.T) {
	svc := NewExportHistoryService(nil, 50, 10, nil)
	ctx := context.Background()

	svc.Record(ctx, models.ExportHistoryEntry{ID: "a", Format: models.ExportFormatCSV, RecordCount: 10, Success: true})
	svc.Record(ctx, models.ExportHistoryEntry{ID: "b", Format: models.ExportFormatJSON, RecordCount: 5, Success: true})
	svc.Record(ctx, models.ExportHistoryEntry{ID: "c", Format: models.ExportFormatCSV, RecordCount: 0, Success: false})

	stats := svc.Statistics()
	assert.Equal(t, 3, stats.TotalExports)
	assert.Equal(t, 15, stats.TotalRecords)
	assert.Equal(t, 2, stats.PerFormat["csv"])
	assert.Equal(t, 1, stats.PerFormat["json"])
	assert.Equal(t, 5.0, stats.AverageRecords)
}

func TestHistoryStatisticsEmpty(t *testing.T) {
	svc := NewExportHistoryService(nil, 50, 10, nil)

	stats := svc.Statistics()
	assert.Zero(t, stats.TotalExports)
	assert.Zero(t, stats.AverageRecords)
	assert.NotNil(t, stats.PerFormat)
}
