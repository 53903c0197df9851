package models

import "time"

// WeekRow is one normalized row of the finance workbook.
type WeekRow struct {
	Week      int        `json:"week"`
	WeekStart *time.Time `json:"weekStart,omitempty"`
	Sales     float64    `json:"sales"`
	Forecast  float64    `json:"forecast"`
	Labour    float64    `json:"labour"`
	COGS      float64    `json:"cogs"`
}

// KPI is a week, period or quarter aggregate with percentage-of-sales ratios.
type KPI struct {
	Index     int     `json:"index"`
	Sales     float64 `json:"sales"`
	Forecast  float64 `json:"forecast"`
	Variance  float64 `json:"variance"`
	Labour    float64 `json:"labour"`
	LabourPct float64 `json:"labourPct"`
	COGS      float64 `json:"cogs"`
	COGSPct   float64 `json:"cogsPct"`
}

type KPIReport struct {
	Weeks    []KPI `json:"weeks"`
	Periods  []KPI `json:"periods"`
	Quarters []KPI `json:"quarters"`
}
