package roster

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/metrics"
	"staff-portal/internal/planday"
)

const (
	DefaultPageSize = 200
	DefaultMaxPages = 200
)

// strategy is one paging convention. params receives the zero-based page
// index and returns the query fields that select it.
type strategy struct {
	name   string
	params func(page, size int) url.Values
}

var strategies = []strategy{
	{"limit/offset", func(page, size int) url.Values {
		return url.Values{"limit": {strconv.Itoa(size)}, "offset": {strconv.Itoa(page * size)}}
	}},
	{"page/pageSize", func(page, size int) url.Values {
		return url.Values{"page": {strconv.Itoa(page + 1)}, "pageSize": {strconv.Itoa(size)}}
	}},
	{"top/skip", func(page, size int) url.Values {
		return url.Values{"top": {strconv.Itoa(size)}, "skip": {strconv.Itoa(page * size)}}
	}},
	{"take/skip", func(page, size int) url.Values {
		return url.Values{"take": {strconv.Itoa(size)}, "skip": {strconv.Itoa(page * size)}}
	}},
}

// Pager reads every page of a list endpoint whose paging parameters are not
// known in advance.
type Pager struct {
	api      Upstream
	pageSize int
	maxPages int
	metrics  *metrics.Registry
	logger   *zap.Logger
}

func NewPager(api Upstream, opts Options) *Pager {
	p := &Pager{
		api:      api,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if p.pageSize <= 0 {
		p.pageSize = DefaultPageSize
	}
	if p.maxPages <= 0 {
		p.maxPages = DefaultMaxPages
	}
	return p
}

// FetchAll tries each paging convention in order. A convention whose first
// page is rejected as a bad request is abandoned for the next one; when all
// are rejected a single request with only base is returned as is.
func (p *Pager) FetchAll(ctx context.Context, path string, base url.Values) ([]planday.Record, error) {
	log := logging.FromContext(ctx, p.logger)

	for _, s := range strategies {
		records, rejected, err := p.run(ctx, s, path, base)
		if err == nil {
			return records, nil
		}
		if !rejected {
			return nil, err
		}
		p.metrics.Fallback("paging")
		log.Debug("paging convention rejected",
			zap.String("path", path),
			zap.String("strategy", s.name),
			zap.Error(err))
	}

	return p.api.GetList(ctx, path, base)
}

func (p *Pager) run(ctx context.Context, s strategy, path string, base url.Values) ([]planday.Record, bool, error) {
	var all []planday.Record
	for page := 0; page < p.maxPages; page++ {
		query := merge(base, s.params(page, p.pageSize))
		records, err := p.api.GetList(ctx, path, query)
		if err != nil {
			if page == 0 && planday.IsBadRequest(err) {
				return nil, true, err
			}
			return nil, false, fmt.Errorf("%s page %d: %w", s.name, page+1, err)
		}
		all = append(all, records...)
		if len(records) < p.pageSize {
			break
		}
	}
	return all, false, nil
}

func merge(base, extra url.Values) url.Values {
	out := make(url.Values, len(base)+len(extra))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
