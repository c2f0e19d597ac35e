package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
)

func TestAggregateText(t *testing.T) {
	field := models.FieldDefinition{ID: "comment", Label: "Comment", Type: models.FieldTypeTextarea}
	analytics := aggregateField(field, []interface{}{"short", "a longer answer here"})

	require.NotNil(t, analytics.Text)
	assert.Equal(t, 2, analytics.ResponseCount)
	assert.Equal(t, 5, analytics.Text.MinLength)
	assert.Equal(t, 20, analytics.Text.MaxLength)
	assert.Equal(t, 12.5, analytics.Text.AverageLength)
	assert.Equal(t, 2.5, analytics.Text.AverageWords)
}

func TestAggregateNumberMedianEven(t *testing.T) {
	field := models.FieldDefinition{ID: "n", Label: "N", Type: models.FieldTypeNumber}
	analytics := aggregateField(field, []interface{}{float64(1), float64(2), float64(3), float64(4)})

	require.NotNil(t, analytics.Number)
	assert.Equal(t, 2.5, analytics.Number.Median)
	assert.Equal(t, 2.5, analytics.Number.Average)
	assert.Equal(t, float64(1), analytics.Number.Min)
	assert.Equal(t, float64(4), analytics.Number.Max)
}

func TestAggregateNumberMedianOdd(t *testing.T) {
	field := models.FieldDefinition{ID: "n", Label: "N", Type: models.FieldTypeNumber}
	analytics := aggregateField(field, []interface{}{float64(5), float64(1), float64(3)})

	require.NotNil(t, analytics.Number)
	assert.Equal(t, float64(3), analytics.Number.Median)
}

func TestAggregateChoiceModeAndOrder(t *testing.T) {
	field := models.FieldDefinition{ID: "color", Label: "Color", Type: models.FieldTypeSelect}
	analytics := aggregateField(field, []interface{}{"Blue", "Red", "Blue", "Green"})

	require.NotNil(t, analytics.Choice)
	assert.Equal(t, "Blue", analytics.Choice.Mode)
	require.Len(t, analytics.Choice.Distribution, 3)
	// Distribution follows first-encounter order.
	assert.Equal(t, "Blue", analytics.Choice.Distribution[0].Value)
	assert.Equal(t, 2, analytics.Choice.Distribution[0].Count)
	assert.Equal(t, float64(50), analytics.Choice.Distribution[0].Percentage)
}

func TestAggregateChoiceModeTieKeepsFirst(t *testing.T) {
	field := models.FieldDefinition{ID: "color", Label: "Color", Type: models.FieldTypeRadio}
	analytics := aggregateField(field, []interface{}{"Red", "Blue", "Blue", "Red"})

	require.NotNil(t, analytics.Choice)
	assert.Equal(t, "Red", analytics.Choice.Mode)
}

func TestAggregateCheckboxPercentagesOverRespondents(t *testing.T) {
	field := models.FieldDefinition{ID: "tags", Label: "Tags", Type: models.FieldTypeCheckbox}
	analytics := aggregateField(field, []interface{}{
		[]interface{}{"a", "b"},
		[]interface{}{"a"},
	})

	require.NotNil(t, analytics.Checkbox)
	require.Len(t, analytics.Checkbox.Distribution, 2)
	// Percentages are over response count, not selection count, so they can
	// exceed 100 in total.
	assert.Equal(t, "a", analytics.Checkbox.Distribution[0].Value)
	assert.Equal(t, float64(100), analytics.Checkbox.Distribution[0].Percentage)
	assert.Equal(t, "b", analytics.Checkbox.Distribution[1].Value)
	assert.Equal(t, float64(50), analytics.Checkbox.Distribution[1].Percentage)
	assert.Equal(t, 1.5, analytics.Checkbox.AverageSelections)
}

func TestAggregateRating(t *testing.T) {
	field := models.FieldDefinition{ID: "stars", Label: "Rating", Type: models.FieldTypeRating}
	analytics := aggregateField(field, []interface{}{float64(4), float64(4), float64(5)})

	require.NotNil(t, analytics.Rating)
	assert.Equal(t, 4.3, analytics.Rating.Average)
	require.Len(t, analytics.Rating.Distribution, 2)
	assert.Equal(t, float64(4), analytics.Rating.Distribution[0].Rating)
	assert.Equal(t, 2, analytics.Rating.Distribution[0].Count)
	assert.Equal(t, float64(67), analytics.Rating.Distribution[0].Percentage)
	assert.Equal(t, float64(5), analytics.Rating.Distribution[1].Rating)
	assert.Equal(t, float64(33), analytics.Rating.Distribution[1].Percentage)
}

func TestAggregateDateSpan(t *testing.T) {
	field := models.FieldDefinition{ID: "when", Label: "Date", Type: models.FieldTypeDate}
	analytics := aggregateField(field, []interface{}{"2024-03-10", "2024-03-01", "2024-03-05"})

	require.NotNil(t, analytics.Date)
	assert.Equal(t, "2024-03-01", analytics.Date.Earliest)
	assert.Equal(t, "2024-03-10", analytics.Date.Latest)
	assert.Equal(t, 10, analytics.Date.SpanDays)
}

func TestAggregateFile(t *testing.T) {
	field := models.FieldDefinition{ID: "doc", Label: "Document", Type: models.FieldTypeFile}
	analytics := aggregateField(field, []interface{}{
		map[string]interface{}{"name": "cv.PDF", "size": float64(1024)},
		[]interface{}{
			map[string]interface{}{"name": "pic.png", "size": float64(512)},
			map[string]interface{}{"name": "noext", "size": float64(512)},
		},
	})

	require.NotNil(t, analytics.File)
	assert.Equal(t, 3, analytics.File.TotalFiles)
	assert.Equal(t, "2 KB", analytics.File.TotalSize)
	assert.Equal(t, 1.5, analytics.File.AverageFiles)
	require.Len(t, analytics.File.Extensions, 3)
	assert.Equal(t, "pdf", analytics.File.Extensions[0].Value)
	assert.Equal(t, "unknown", analytics.File.Extensions[2].Value)
}

func TestHumanFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", humanFileSize(0))
	assert.Equal(t, "512 Bytes", humanFileSize(512))
	assert.Equal(t, "1 KB", humanFileSize(1024))
	assert.Equal(t, "1.5 KB", humanFileSize(1536))
	assert.Equal(t, "1 MB", humanFileSize(1024*1024))
	assert.Equal(t, "2.25 GB", humanFileSize(2.25*1024*1024*1024))
}

func TestMedianEmptySafe(t *testing.T) {
	field := models.FieldDefinition{ID: "n", Label: "N", Type: models.FieldTypeNumber}
	analytics := aggregateField(field, nil)

	require.NotNil(t, analytics.Number)
	assert.Zero(t, analytics.Number.Average)
	assert.Zero(t, analytics.ResponseCount)
}
