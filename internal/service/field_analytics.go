package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/formhub-api/internal/models"
)

// aggregateField computes type-specific statistics for one field. Values must
// be the non-empty answers only; callers filter blanks beforehand.
func aggregateField(field models.FieldDefinition, values []interface{}) models.FieldAnalytics {
	analytics := models.FieldAnalytics{
		FieldID:       field.ID,
		Label:         field.Label,
		Type:          field.Type,
		ResponseCount: len(values),
	}

	switch {
	case field.Type.IsTextLike():
		analytics.Text = aggregateText(values)
	case field.Type == models.FieldTypeNumber:
		analytics.Number = aggregateNumber(values)
	case field.Type.IsChoice():
		analytics.Choice = aggregateChoice(values)
	case field.Type == models.FieldTypeCheckbox:
		analytics.Checkbox = aggregateCheckbox(values)
	case field.Type == models.FieldTypeRating:
		analytics.Rating = aggregateRating(values)
	case field.Type == models.FieldTypeDate:
		analytics.Date = aggregateDate(values)
	case field.Type == models.FieldTypeFile:
		analytics.File = aggregateFile(values)
	default:
		analytics.Summary = "no specific analytics"
	}
	return analytics
}

func aggregateText(values []interface{}) *models.TextStats {
	stats := &models.TextStats{}
	if len(values) == 0 {
		return stats
	}
	totalLen := 0
	totalWords := 0
	minLen := math.MaxInt
	for _, v := range values {
		str := fmt.Sprint(v)
		totalLen += len(str)
		totalWords += len(strings.Fields(str))
		if len(str) > stats.MaxLength {
			stats.MaxLength = len(str)
		}
		if len(str) < minLen {
			minLen = len(str)
		}
	}
	stats.MinLength = minLen
	stats.AverageLength = round2(float64(totalLen) / float64(len(values)))
	stats.AverageWords = round2(float64(totalWords) / float64(len(values)))
	return stats
}

func aggregateNumber(values []interface{}) *models.NumberStats {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if num, ok := toFloat(v); ok {
			nums = append(nums, num)
		}
	}
	stats := &models.NumberStats{}
	if len(nums) == 0 {
		return stats
	}
	sum := 0.0
	stats.Min = nums[0]
	stats.Max = nums[0]
	for _, n := range nums {
		sum += n
		if n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
	}
	stats.Average = round2(sum / float64(len(nums)))
	stats.Median = median(nums)
	return stats
}

// median sorts a copy and averages the midpoints for even-sized input.
func median(nums []float64) float64 {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func aggregateChoice(values []interface{}) *models.ChoiceStats {
	counts := map[string]int{}
	order := make([]string, 0)
	for _, v := range values {
		str := fmt.Sprint(v)
		if _, seen := counts[str]; !seen {
			order = append(order, str)
		}
		counts[str]++
	}
	stats := &models.ChoiceStats{Distribution: make([]models.OptionCount, 0, len(order))}
	best := -1
	for _, value := range order {
		count := counts[value]
		stats.Distribution = append(stats.Distribution, models.OptionCount{
			Value:      value,
			Count:      count,
			Percentage: percentage(count, len(values)),
		})
		// Ties keep the first-encountered value.
		if count > best {
			best = count
			stats.Mode = value
		}
	}
	return stats
}

func aggregateCheckbox(values []interface{}) *models.CheckboxStats {
	counts := map[string]int{}
	order := make([]string, 0)
	totalSelections := 0
	for _, v := range values {
		arr, ok := v.([]interface{})
		if !ok {
			continue
		}
		totalSelections += len(arr)
		for _, item := range arr {
			str := fmt.Sprint(item)
			if _, seen := counts[str]; !seen {
				order = append(order, str)
			}
			counts[str]++
		}
	}
	stats := &models.CheckboxStats{Distribution: make([]models.OptionCount, 0, len(order))}
	for _, value := range order {
		stats.Distribution = append(stats.Distribution, models.OptionCount{
			Value:      value,
			Count:      counts[value],
			Percentage: percentage(counts[value], len(values)),
		})
	}
	if len(values) > 0 {
		stats.AverageSelections = round2(float64(totalSelections) / float64(len(values)))
	}
	return stats
}

func aggregateRating(values []interface{}) *models.RatingStats {
	counts := map[float64]int{}
	sum := 0.0
	n := 0
	for _, v := range values {
		if num, ok := toFloat(v); ok {
			counts[num]++
			sum += num
			n++
		}
	}
	stats := &models.RatingStats{}
	if n == 0 {
		return stats
	}
	stats.Average = round1(sum / float64(n))
	ratings := make([]float64, 0, len(counts))
	for rating := range counts {
		ratings = append(ratings, rating)
	}
	sort.Float64s(ratings)
	stats.Distribution = make([]models.RatingCount, 0, len(ratings))
	for _, rating := range ratings {
		stats.Distribution = append(stats.Distribution, models.RatingCount{
			Rating:     rating,
			Count:      counts[rating],
			Percentage: percentage(counts[rating], n),
		})
	}
	return stats
}

func aggregateDate(values []interface{}) *models.DateStats {
	days := make([]string, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if parsed, err := parseDate(str); err == nil {
			days = append(days, parsed.Format("2006-01-02"))
		}
	}
	stats := &models.DateStats{}
	if len(days) == 0 {
		return stats
	}
	sort.Strings(days)
	stats.Earliest = days[0]
	stats.Latest = days[len(days)-1]
	earliest, _ := parseDate(stats.Earliest)
	latest, _ := parseDate(stats.Latest)
	stats.SpanDays = int(latest.Sub(earliest).Hours()/24) + 1
	return stats
}

func aggregateFile(values []interface{}) *models.FileStats {
	extCounts := map[string]int{}
	order := make([]string, 0)
	totalFiles := 0
	var totalSize float64
	for _, v := range values {
		for _, f := range fileItems(v) {
			totalFiles++
			totalSize += f.Size
			ext := strings.ToLower(strings.TrimPrefix(fileExtension(f.Name), "."))
			if ext == "" {
				ext = "unknown"
			}
			if _, seen := extCounts[ext]; !seen {
				order = append(order, ext)
			}
			extCounts[ext]++
		}
	}
	stats := &models.FileStats{
		TotalFiles: totalFiles,
		TotalSize:  humanFileSize(totalSize),
		Extensions: make([]models.OptionCount, 0, len(order)),
	}
	if len(values) > 0 {
		stats.AverageFiles = round2(float64(totalFiles) / float64(len(values)))
	}
	for _, ext := range order {
		stats.Extensions = append(stats.Extensions, models.OptionCount{
			Value:      ext,
			Count:      extCounts[ext],
			Percentage: percentage(extCounts[ext], totalFiles),
		})
	}
	return stats
}

// humanFileSize renders byte totals with binary (1024) units.
func humanFileSize(size float64) string {
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d Bytes", int64(size))
	}
	return fmt.Sprintf("%s %s", formatNumber(round2(size)), units[i])
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
