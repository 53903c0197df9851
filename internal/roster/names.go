package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"staff-portal/internal/logging"
	"staff-portal/internal/metrics"
	"staff-portal/internal/models"
	"staff-portal/internal/planday"
)

const DefaultLookupConcurrency = 6

// NameResolver maps employee ids to display names. The map it builds lives
// for one request only.
type NameResolver struct {
	api     Upstream
	workers int
	metrics *metrics.Registry
	logger  *zap.Logger
}

func NewNameResolver(api Upstream, opts Options) *NameResolver {
	n := &NameResolver{
		api:     api,
		workers: opts.LookupConcurrency,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if n.workers <= 0 {
		n.workers = DefaultLookupConcurrency
	}
	return n
}

// Resolve returns a non-empty name for every id. One batch call is tried
// first; ids it did not answer are looked up one by one on a fixed pool of
// workers. Ids that still fail get a placeholder.
func (n *NameResolver) Resolve(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	log := logging.FromContext(ctx, n.logger)

	n.batch(ctx, log, ids, names)

	var pending []string
	for _, id := range ids {
		if names[id] == "" {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return names
	}

	results := make([]string, len(pending))
	var cursor atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < min(n.workers, len(pending)); w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(pending) {
					return nil
				}
				results[i] = n.single(gctx, log, pending[i])
			}
		})
	}
	_ = g.Wait()

	for i, id := range pending {
		names[id] = results[i]
	}
	return names
}

func (n *NameResolver) batch(ctx context.Context, log *zap.Logger, ids []string, names map[string]string) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var raw json.RawMessage
	query := url.Values{"ids": {strings.Join(ids, ",")}}
	if err := n.api.GetJSON(ctx, planday.EmployeesPath, query, &raw); err != nil {
		n.metrics.Lookup("batch", "error")
		log.Debug("batch name lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return
	}

	records, err := planday.DecodeList(raw)
	if errors.Is(err, planday.ErrMalformedEnvelope) {
		n.metrics.Lookup("batch", "malformed")
		log.Warn("batch name lookup returned an object without a list", zap.Int("ids", len(ids)))
		return
	}
	if err != nil {
		n.metrics.Lookup("batch", "error")
		log.Debug("batch name lookup undecodable", zap.Error(err))
		return
	}

	n.metrics.Lookup("batch", "ok")
	for _, r := range records {
		id := r.String("id", "employeeId")
		if !wanted[id] {
			continue
		}
		if label := employeeFromRecord(r).Label(); label != "" {
			names[id] = label
		}
	}
}

func (n *NameResolver) single(ctx context.Context, log *zap.Logger, id string) string {
	var r planday.Record
	if err := n.api.GetJSON(ctx, planday.EmployeesPath+"/"+url.PathEscape(id), nil, &r); err != nil {
		n.metrics.Lookup("single", "error")
		log.Debug("employee lookup failed", zap.String("employee_id", id), zap.Error(err))
		return Placeholder(id)
	}
	// single-object responses are sometimes wrapped in data
	if inner, ok := r["data"].(map[string]any); ok {
		r = inner
	}
	label := employeeFromRecord(r).Label()
	if label == "" {
		n.metrics.Lookup("single", "unnamed")
		return Placeholder(id)
	}
	n.metrics.Lookup("single", "ok")
	return label
}

func employeeFromRecord(r planday.Record) models.Employee {
	return models.Employee{
		ID:          r.String("id", "employeeId"),
		FirstName:   r.String("firstName"),
		LastName:    r.String("lastName"),
		Name:        r.String("name"),
		FullName:    r.String("fullName"),
		DisplayName: r.String("displayName"),
	}
}
