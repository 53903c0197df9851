package roster

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/metrics"
	"staff-portal/internal/models"
)

// DefaultStatuses is used when a query names no shift status.
var DefaultStatuses = []string{"Published", "Open"}

type Options struct {
	PageSize          int
	MaxPages          int
	LookupConcurrency int
	Metrics           *metrics.Registry
	Logger            *zap.Logger
}

type ShiftQuery struct {
	DepartmentIDs []string
	Date          time.Time
	Statuses      []string
}

// Engine turns a day and a set of departments into a named, ordered shift list.
type Engine struct {
	pager   *Pager
	names   *NameResolver
	metrics *metrics.Registry
	logger  *zap.Logger
}

func NewEngine(api Upstream, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		pager:   NewPager(api, opts),
		names:   NewNameResolver(api, opts),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

func (e *Engine) ShiftsForDay(ctx context.Context, q ShiftQuery) ([]models.NormalizedShift, error) {
	if len(q.DepartmentIDs) == 0 {
		return nil, fmt.Errorf("no departments given")
	}
	if len(q.Statuses) == 0 {
		q.Statuses = DefaultStatuses
	}
	log := logging.FromContext(ctx, e.logger)
	started := time.Now()

	// Step 1: every shift in the day window
	raw, err := e.fetchDay(ctx, q)
	if err != nil {
		return nil, err
	}
	shifts := Dedupe(raw)

	// Step 2: names for assigned employees
	names := e.names.Resolve(ctx, employeeIDs(shifts))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: dedupe, label and order
	out := Normalize(shifts, names)

	log.Debug("shifts fetched",
		zap.Strings("departments", q.DepartmentIDs),
		zap.Int("raw", len(raw)),
		zap.Int("shifts", len(out)),
		zap.Duration("duration", time.Since(started)))
	return out, nil
}

// employeeIDs returns the distinct assigned employee ids in first-seen order.
func employeeIDs(shifts []models.Shift) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range shifts {
		if s.EmployeeID == "" || seen[s.EmployeeID] {
			continue
		}
		seen[s.EmployeeID] = true
		ids = append(ids, s.EmployeeID)
	}
	return ids
}
