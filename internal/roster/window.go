package roster

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/models"
	"staff-portal/internal/planday"
)

const dateLayout = "2006-01-02"

// window is one from/to encoding of a time range.
type window struct {
	format string
	from   string
	to     string
}

// wholeDay returns the candidate encodings of day, in the order they are tried.
func wholeDay(day time.Time) []window {
	d := day.Format(dateLayout)
	return []window{
		{"seconds", d + "T00:00:00", d + "T23:59:59"},
		{"date", d, d},
		{"minutes", d + "T00:00", d + "T23:59"},
	}
}

// halfDays splits day at noon. The second half ends at the next midnight.
func halfDays(day time.Time) []window {
	d := day.Format(dateLayout)
	next := day.AddDate(0, 0, 1).Format(dateLayout)
	return []window{
		{"half-day", d + "T00:00:00", d + "T12:00:00"},
		{"half-day", d + "T12:00:00", next + "T00:00:00"},
	}
}

// fetchDay reads every shift for q across all departments and statuses.
// Each whole-day encoding is one attempt over the full department x status
// grid; a bad request moves the whole fetch to the next encoding.
func (e *Engine) fetchDay(ctx context.Context, q ShiftQuery) ([]models.Shift, error) {
	log := logging.FromContext(ctx, e.logger)

	for _, w := range wholeDay(q.Date) {
		shifts, err := e.fetchWindows(ctx, q, []window{w})
		if err == nil {
			return shifts, nil
		}
		if !planday.IsBadRequest(err) {
			return nil, err
		}
		e.metrics.Fallback("window")
		log.Debug("date window rejected", zap.String("window", w.format), zap.Error(err))
	}

	e.metrics.Fallback("half_day")
	log.Info("fetching day as two half-day windows", zap.String("date", q.Date.Format(dateLayout)))
	return e.fetchWindows(ctx, q, halfDays(q.Date))
}

func (e *Engine) fetchWindows(ctx context.Context, q ShiftQuery, windows []window) ([]models.Shift, error) {
	var shifts []models.Shift
	for _, dept := range q.DepartmentIDs {
		for _, status := range q.Statuses {
			for _, w := range windows {
				base := url.Values{
					"departmentId": {dept},
					"from":         {w.from},
					"to":           {w.to},
					"shiftStatus":  {status},
				}
				records, err := e.pager.FetchAll(ctx, planday.ShiftsPath, base)
				if err != nil {
					return nil, err
				}
				for _, r := range records {
					if s, ok := shiftFromRecord(r, dept); ok {
						shifts = append(shifts, s)
					}
				}
			}
		}
	}
	return shifts, nil
}
