package roster

import (
	"context"
	"net/url"

	"staff-portal/internal/planday"
)

// Upstream is the slice of the scheduling client the engine needs.
type Upstream interface {
	GetList(ctx context.Context, path string, query url.Values) ([]planday.Record, error)
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}
