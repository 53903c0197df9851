package roster

import (
	"context"
	"encoding/json"
	"net/url"

	"staff-portal/internal/planday"
)

type MockUpstream struct {
	GetListFunc func(ctx context.Context, path string, query url.Values) ([]planday.Record, error)
	GetJSONFunc func(ctx context.Context, path string, query url.Values, out any) error
}

func (m *MockUpstream) GetList(ctx context.Context, path string, query url.Values) ([]planday.Record, error) {
	if m.GetListFunc == nil {
		return nil, nil
	}
	return m.GetListFunc(ctx, path, query)
}

func (m *MockUpstream) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	if m.GetJSONFunc == nil {
		return &planday.UpstreamError{Status: 404, Path: path, Body: "not found"}
	}
	return m.GetJSONFunc(ctx, path, query, out)
}

// fill decodes v into out the way the real client decodes a response body.
func fill(out any, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func badRequest(path string) error {
	return &planday.UpstreamError{Status: 400, Path: path, Body: "invalid query"}
}

func records(n int, prefix string) []planday.Record {
	out := make([]planday.Record, n)
	for i := range out {
		out[i] = planday.Record{"id": prefix + "-" + itoa(i)}
	}
	return out
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
