package dto

// AnalyticsQuery captures GET /forms/:id/analytics query parameters.
type AnalyticsQuery struct {
	WindowDays int `form:"windowDays"`
}
