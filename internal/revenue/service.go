// Package revenue sums actual and budgeted turnover for a day and its week.
package revenue

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"staff-portal/internal/logging"
	"staff-portal/internal/models"
	"staff-portal/internal/planday"
	"staff-portal/internal/roster"
)

const (
	dateLayout       = "2006-01-02"
	departmentFanout = 4
)

var amountFields = []string{"turnover", "amount", "revenue", "value", "total"}

type Query struct {
	DepartmentIDs []string
	Date          time.Time
}

type Service struct {
	pager  *roster.Pager
	logger *zap.Logger
}

func NewService(api roster.Upstream, opts roster.Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{pager: roster.NewPager(api, opts), logger: opts.Logger}
}

// ForDay returns today's and week-to-date actuals and forecasts, summed over
// every department. The week runs from Monday up to, not including, the day
// after q.Date.
func (s *Service) ForDay(ctx context.Context, q Query) (models.RevenueSummary, error) {
	if len(q.DepartmentIDs) == 0 {
		return models.RevenueSummary{}, fmt.Errorf("no departments given")
	}
	today, end := q.Date, q.Date.AddDate(0, 0, 1)
	monday := WeekStart(q.Date)

	perDept := make([]models.RevenueSummary, len(q.DepartmentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(departmentFanout)
	for i, dept := range q.DepartmentIDs {
		g.Go(func() error {
			var (
				sum models.RevenueSummary
				err error
			)
			if sum.TodayActual, err = s.total(gctx, planday.RevenuePath, dept, today, end); err != nil {
				return err
			}
			if sum.TodayForecast, err = s.total(gctx, planday.BudgetPath, dept, today, end); err != nil {
				return err
			}
			if sum.WeekActual, err = s.total(gctx, planday.RevenuePath, dept, monday, end); err != nil {
				return err
			}
			if sum.WeekForecast, err = s.total(gctx, planday.BudgetPath, dept, monday, end); err != nil {
				return err
			}
			perDept[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.RevenueSummary{}, err
	}

	var out models.RevenueSummary
	for _, d := range perDept {
		out.TodayActual += d.TodayActual
		out.TodayForecast += d.TodayForecast
		out.WeekActual += d.WeekActual
		out.WeekForecast += d.WeekForecast
	}

	logging.FromContext(ctx, s.logger).Debug("revenue summed",
		zap.Strings("departments", q.DepartmentIDs),
		zap.String("date", q.Date.Format(dateLayout)))
	return out, nil
}

func (s *Service) total(ctx context.Context, path, dept string, from, to time.Time) (float64, error) {
	records, err := s.pager.FetchAll(ctx, path, url.Values{
		"departmentId": {dept},
		"from":         {from.Format(dateLayout)},
		"to":           {to.Format(dateLayout)},
	})
	if err != nil {
		return 0, fmt.Errorf("department %s: %w", dept, err)
	}
	var sum float64
	for _, r := range records {
		if v, ok := r.Number(amountFields...); ok {
			sum += v
		}
	}
	return sum, nil
}

// WeekStart returns the Monday on or before d.
func WeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
