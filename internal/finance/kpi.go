package finance

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/models"
)

const (
	weeksPerPeriod  = 4
	weeksPerQuarter = 13
	maxPeriods      = 13
	maxQuarters     = 4
)

// Rollup aggregates week rows into week, period and quarter KPIs. Rows for the
// same week are summed.
func Rollup(weeks []models.WeekRow) models.KPIReport {
	byWeek := map[int]*models.KPI{}
	byPeriod := map[int]*models.KPI{}
	byQuarter := map[int]*models.KPI{}

	for _, w := range weeks {
		if w.Week < 1 {
			continue
		}
		period := min((w.Week-1)/weeksPerPeriod+1, maxPeriods)
		quarter := min((w.Week-1)/weeksPerQuarter+1, maxQuarters)

		add(byWeek, w.Week, w)
		add(byPeriod, period, w)
		add(byQuarter, quarter, w)
	}

	return models.KPIReport{
		Weeks:    finish(byWeek),
		Periods:  finish(byPeriod),
		Quarters: finish(byQuarter),
	}
}

func add(into map[int]*models.KPI, idx int, w models.WeekRow) {
	k, ok := into[idx]
	if !ok {
		k = &models.KPI{Index: idx}
		into[idx] = k
	}
	k.Sales += w.Sales
	k.Forecast += w.Forecast
	k.Labour += w.Labour
	k.COGS += w.COGS
}

func finish(m map[int]*models.KPI) []models.KPI {
	out := make([]models.KPI, 0, len(m))
	for _, k := range m {
		k.Variance = round(k.Sales-k.Forecast, 2)
		k.LabourPct = Percent(k.Labour, k.Sales)
		k.COGSPct = Percent(k.COGS, k.Sales)
		out = append(out, *k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Percent is cost as a share of sales, to one decimal. Zero sales gives 0.
func Percent(cost, sales float64) float64 {
	if sales == 0 {
		return 0
	}
	return round(cost/sales*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Service serves KPI reports from a workbook, re-reading it at most once per ttl.
type Service struct {
	source string
	sheet  string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	report   *models.KPIReport
	loadedAt time.Time
}

func NewService(source, sheet string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, sheet: sheet, ttl: ttl, logger: logger, now: time.Now}
}

func (s *Service) Report(ctx context.Context) (models.KPIReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil && s.now().Sub(s.loadedAt) < s.ttl {
		return *s.report, nil
	}

	weeks, err := LoadWorkbook(ctx, s.source, s.sheet)
	if err != nil {
		if s.report != nil {
			s.logger.Warn("finance workbook reload failed, serving previous report", zap.Error(err))
			return *s.report, nil
		}
		return models.KPIReport{}, err
	}

	report := Rollup(weeks)
	s.report, s.loadedAt = &report, s.now()
	s.logger.Info("finance workbook loaded", zap.String("source", s.source), zap.Int("weeks", len(weeks)))
	return report, nil
}
