package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/models"
	"staff-portal/internal/revenue"
	"staff-portal/internal/roster"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20

	// nginx's code for a client that went away before the response
	statusClientClosedRequest = 499
)

// ValidationError is caller input rejected before any upstream call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// departmentIDs accepts JSON strings or numbers and keeps them as strings.
type departmentIDs []string

func (d *departmentIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New("departmentIds must be an array")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case json.Number:
			out = append(out, t.String())
		default:
			return errors.New("departmentIds entries must be strings or numbers")
		}
	}
	*d = out
	return nil
}

// statusList accepts a single status or an array of them.
type statusList []string

func (s *statusList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one = strings.TrimSpace(one); one != "" {
			*s = statusList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.New("status must be a string or an array of strings")
	}
	for _, v := range many {
		if v = strings.TrimSpace(v); v != "" {
			*s = append(*s, v)
		}
	}
	return nil
}

type dayRequest struct {
	DepartmentIDs departmentIDs `json:"departmentIds"`
	Date          string        `json:"date"`
	Status        statusList    `json:"status"`
}

type dayQuery struct {
	departments []string
	date        time.Time
	statuses    []string
}

func decodeDayRequest(w http.ResponseWriter, r *http.Request) (dayQuery, error) {
	var req dayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return dayQuery{}, invalid("invalid JSON body: %v", err)
	}
	return validateDay(req.DepartmentIDs, req.Date, req.Status)
}

func validateDay(departments []string, date string, statuses []string) (dayQuery, error) {
	if len(departments) == 0 {
		return dayQuery{}, invalid("departmentIds is required")
	}
	if date == "" {
		return dayQuery{}, invalid("date is required")
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return dayQuery{}, invalid("date must be YYYY-MM-DD")
	}
	return dayQuery{departments: departments, date: day, statuses: statuses}, nil
}

func (a *app) shiftQuery(q dayQuery) roster.ShiftQuery {
	statuses := q.statuses
	if len(statuses) == 0 {
		statuses = a.statuses
	}
	return roster.ShiftQuery{DepartmentIDs: q.departments, Date: q.date, Statuses: statuses}
}

func (a *app) handleShiftsForDay(w http.ResponseWriter, r *http.Request) {
	q, err := decodeDayRequest(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.shifts.ShiftsForDay(r.Context(), a.shiftQuery(q))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []models.NormalizedShift{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *app) handleRevenueForDay(w http.ResponseWriter, r *http.Request) {
	q, err := decodeDayRequest(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sum, err := a.revenue.ForDay(r.Context(), revenue.Query{DepartmentIDs: q.departments, Date: q.date})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *app) handleKPIs(w http.ResponseWriter, r *http.Request) {
	report, err := a.kpis.Report(r.Context())
	if err != nil {
		logging.FromContext(r.Context(), a.logger).Error("finance report failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "finance workbook unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.profiles.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps err onto the {error} envelope: bad input is 400, everything
// else came from upstream and is 502.
func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context(), a.logger)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, context.Canceled):
		log.Warn("request aborted by client", zap.String("path", r.URL.Path))
		w.WriteHeader(statusClientClosedRequest)
	default:
		writeError(w, http.StatusBadGateway, "upstream fetch failed: "+err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
