package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
)

func newAnalyticsServiceForTest(now time.Time) *AnalyticsService {
	svc := NewAnalyticsService(nil, nil, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func submissionAt(formID string, at time.Time, data models.SubmissionData) models.Submission {
	return models.Submission{
		ID:          "sub-" + at.Format("20060102150405"),
		FormID:      formID,
		Data:        data,
		SubmittedAt: at,
		Status:      models.SubmissionStatusNew,
	}
}

func TestAggregateFormTrendZeroFilled(t *testing.T) {
	// A Wednesday at noon.
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1", Fields: models.FieldList{
		{ID: "name", Label: "Name", Type: models.FieldTypeText},
	}}
	subs := []models.Submission{
		submissionAt("form-1", now.AddDate(0, 0, -2), models.SubmissionData{"name": "a"}),
		submissionAt("form-1", now.AddDate(0, 0, -2).Add(time.Hour), models.SubmissionData{"name": "b"}),
		submissionAt("form-1", now, models.SubmissionData{"name": "c"}),
	}

	analytics, cached, err := svc.AggregateForm(context.Background(), form, subs, 7)
	require.NoError(t, err)
	assert.False(t, cached)

	require.Len(t, analytics.Trend, 7)
	assert.Equal(t, "2024-06-06", analytics.Trend[0].Date)
	assert.Equal(t, "2024-06-12", analytics.Trend[6].Date)
	assert.Equal(t, 0, analytics.Trend[0].Count)
	assert.Equal(t, 2, analytics.Trend[4].Count)
	assert.Equal(t, 1, analytics.Trend[6].Count)

	assert.Equal(t, 3, analytics.TotalSubmissions)
	assert.Equal(t, 3, analytics.RecentSubmissions)
	assert.Equal(t, 1, analytics.Today)
	assert.Equal(t, 3, analytics.ThisWeek, "week starts Sunday")
	assert.Equal(t, 3, analytics.ThisMonth)
	assert.Equal(t, 0.43, analytics.AveragePerDay)
}

func TestAggregateFormWindowExcludesOldSubmissions(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1"}
	subs := []models.Submission{
		submissionAt("form-1", now.AddDate(0, 0, -10), nil),
		submissionAt("form-1", now, nil),
	}

	analytics, _, err := svc.AggregateForm(context.Background(), form, subs, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, analytics.TotalSubmissions)
	assert.Equal(t, 1, analytics.RecentSubmissions)
	require.Len(t, analytics.Trend, 7)
}

func TestAggregateFormCompletionRate(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1", Fields: models.FieldList{
		{ID: "a", Label: "A", Type: models.FieldTypeText},
		{ID: "b", Label: "B", Type: models.FieldTypeText},
	}}
	subs := []models.Submission{
		submissionAt("form-1", now, models.SubmissionData{"a": "x", "b": "y"}),
		submissionAt("form-1", now, models.SubmissionData{"a": "x"}),
	}

	analytics, _, err := svc.AggregateForm(context.Background(), form, subs, 7)
	require.NoError(t, err)

	// (100% + 50%) / 2
	assert.Equal(t, 75, analytics.CompletionRate)
}

func TestAggregateFormPeaks(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1"}
	monday9 := time.Date(2024, 6, 10, 9, 15, 0, 0, time.UTC)
	subs := []models.Submission{
		submissionAt("form-1", monday9, nil),
		submissionAt("form-1", monday9.Add(10*time.Minute), nil),
		submissionAt("form-1", now, nil),
	}

	analytics, _, err := svc.AggregateForm(context.Background(), form, subs, 7)
	require.NoError(t, err)

	assert.Equal(t, "09:00", analytics.PeakHour)
	assert.Equal(t, "Monday", analytics.PeakDay)
	require.NotEmpty(t, analytics.PeakHours)
	assert.Equal(t, 2, analytics.PeakHours[0].Count)
}

func TestAggregateFormPerFieldSkipsEmptyValues(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1", Fields: models.FieldList{
		{ID: "stars", Label: "Rating", Type: models.FieldTypeRating},
	}}
	subs := []models.Submission{
		submissionAt("form-1", now, models.SubmissionData{"stars": float64(4)}),
		submissionAt("form-1", now, models.SubmissionData{}),
	}

	analytics, _, err := svc.AggregateForm(context.Background(), form, subs, 7)
	require.NoError(t, err)

	require.Len(t, analytics.Fields, 1)
	assert.Equal(t, 1, analytics.Fields[0].ResponseCount)
	require.NotNil(t, analytics.Fields[0].Rating)
	assert.Equal(t, float64(4), analytics.Fields[0].Rating.Average)
}

func TestAggregateFormDefaultWindow(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsServiceForTest(now)
	form := &models.Form{ID: "form-1"}

	analytics, _, err := svc.AggregateForm(context.Background(), form, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, analytics.WindowDays)
	assert.Len(t, analytics.Trend, 30)
}
