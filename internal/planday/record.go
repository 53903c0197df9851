package planday

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedEnvelope marks a JSON object that carries no recognizable list.
var ErrMalformedEnvelope = errors.New("response is not a list envelope")

// Record is one loosely typed upstream object. Field names vary per tenant
// and API version, so readers pass every alias they accept.
type Record map[string]any

// DecodeList accepts a bare array or an object with an items or data array.
func DecodeList(body []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []Record
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"items", "data"} {
		raw, ok := envelope[key]
		if !ok || !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
			continue
		}
		var list []Record
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, ErrMalformedEnvelope
}

// String returns the first alias holding a non-empty scalar, formatted as text.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			s = t.String()
		case bool:
			s = strconv.FormatBool(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Number returns the first alias holding a number or numeric string.
func (r Record) Number(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch t := r[k].(type) {
		case float64:
			return t, true
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
