package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
)

const defaultAnalyticsWindowDays = 30

// AnalyticsService aggregates submission statistics per field and per form,
// with cache integration for repeated reads.
type AnalyticsService struct {
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// AggregateField computes type-specific statistics for one field's non-empty
// values. Pure; exposed for collaborators that hold their own submission sets.
func (s *AnalyticsService) AggregateField(field models.FieldDefinition, values []interface{}) models.FieldAnalytics {
	return aggregateField(field, values)
}

// AggregateForm computes the full analytics object for a form over a window
// of days. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) AggregateForm(ctx context.Context, form *models.Form, submissions []models.Submission, windowDays int) (*models.FormAnalytics, bool, error) {
	if form == nil {
		return nil, false, fmt.Errorf("form nil")
	}
	if windowDays <= 0 {
		windowDays = defaultAnalyticsWindowDays
	}

	cacheKey := fmt.Sprintf("analytics:form:%s:%d:%d", form.ID, windowDays, len(submissions))
	var cached models.FormAnalytics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get form analytics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	analytics := s.aggregate(form, submissions, windowDays)
	if s.metrics != nil {
		s.metrics.ObserveAggregation("form_analytics", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, analytics, 0); err != nil {
			s.logger.Warn("cache form analytics", zap.Error(err))
		}
	}
	return analytics, false, nil
}

func (s *AnalyticsService) aggregate(form *models.Form, submissions []models.Submission, windowDays int) *models.FormAnalytics {
	now := s.now()
	today := startOfDay(now)
	windowStart := today.AddDate(0, 0, -(windowDays - 1))
	weekStart := today.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	analytics := &models.FormAnalytics{
		FormID:           form.ID,
		TotalSubmissions: len(submissions),
		WindowDays:       windowDays,
		GeneratedAt:      now.UTC(),
	}

	trendCounts := map[string]int{}
	hourCounts := map[string]int{}
	hourOrder := make([]string, 0)
	dayCounts := map[string]int{}
	dayOrder := make([]string, 0)

	completionSum := 0.0
	for _, sub := range submissions {
		at := sub.SubmittedAt.In(now.Location())
		if !at.Before(windowStart) {
			analytics.RecentSubmissions++
			trendCounts[at.Format("2006-01-02")]++
		}
		if !at.Before(today) {
			analytics.Today++
		}
		if !at.Before(weekStart) {
			analytics.ThisWeek++
		}
		if !at.Before(monthStart) {
			analytics.ThisMonth++
		}

		hourKey := at.Format("15:00")
		if _, seen := hourCounts[hourKey]; !seen {
			hourOrder = append(hourOrder, hourKey)
		}
		hourCounts[hourKey]++

		dayKey := at.Weekday().String()
		if _, seen := dayCounts[dayKey]; !seen {
			dayOrder = append(dayOrder, dayKey)
		}
		dayCounts[dayKey]++

		completionSum += completionFraction(sub, form.Fields)
	}

	analytics.AveragePerDay = round2(float64(analytics.RecentSubmissions) / float64(windowDays))
	if len(submissions) > 0 {
		analytics.CompletionRate = int(math.Round(completionSum / float64(len(submissions)) * 100))
	}

	// Every day of the window appears in the trend, zero-filled.
	analytics.Trend = make([]models.TrendPoint, 0, windowDays)
	for d := 0; d < windowDays; d++ {
		date := windowStart.AddDate(0, 0, d).Format("2006-01-02")
		analytics.Trend = append(analytics.Trend, models.TrendPoint{Date: date, Count: trendCounts[date]})
	}

	analytics.PeakHours = sortBuckets(hourOrder, hourCounts)
	analytics.PeakDays = sortBuckets(dayOrder, dayCounts)
	if len(analytics.PeakHours) > 0 {
		analytics.PeakHour = analytics.PeakHours[0].Key
	}
	if len(analytics.PeakDays) > 0 {
		analytics.PeakDay = analytics.PeakDays[0].Key
	}

	analytics.Fields = make([]models.FieldAnalytics, 0, len(form.Fields))
	for _, field := range form.Fields {
		values := make([]interface{}, 0, len(submissions))
		for _, sub := range submissions {
			value := sub.Data[field.ID]
			if !isEmptyValue(value, field.Type) {
				values = append(values, value)
			}
		}
		analytics.Fields = append(analytics.Fields, aggregateField(field, values))
	}
	return analytics
}

// completionFraction is the share of the form's fields answered in one submission.
func completionFraction(sub models.Submission, fields models.FieldList) float64 {
	if len(fields) == 0 {
		return 0
	}
	filled := 0
	for _, field := range fields {
		if !isEmptyValue(sub.Data[field.ID], field.Type) {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// sortBuckets orders buckets by descending count, preserving first-encountered
// order on ties.
func sortBuckets(order []string, counts map[string]int) []models.BucketCount {
	buckets := make([]models.BucketCount, 0, len(order))
	for _, key := range order {
		buckets = append(buckets, models.BucketCount{Key: key, Count: counts[key]})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	return buckets
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
