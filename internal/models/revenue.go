package models

// RevenueSummary is the /revenue-for-day response, summed across departments.
type RevenueSummary struct {
	TodayActual   float64 `json:"todayActual"`
	TodayForecast float64 `json:"todayForecast"`
	WeekActual    float64 `json:"weekActual"`
	WeekForecast  float64 `json:"weekForecast"`
}
