package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"staff-portal/internal/config"
	"staff-portal/internal/metrics"
	"staff-portal/internal/planday"
)

// fakePlanday serves the token, shifts, employees, revenue and budget
// endpoints and records every request path with its query.
type fakePlanday struct {
	mu       sync.Mutex
	requests []string

	tokenStatus int
	shiftsBody  string
	shifts      []map[string]any
	employees   []map[string]any
	revenue     float64
	budget      float64
}

func (f *fakePlanday) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/token":
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	case r.URL.Path == planday.ShiftsPath && f.shiftsBody != "":
		w.Write([]byte(f.shiftsBody))
	case r.URL.Path == planday.ShiftsPath:
		var out []map[string]any
		for _, s := range f.shifts {
			if s["status"] == r.URL.Query().Get("shiftStatus") {
				out = append(out, s)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": out})
	case r.URL.Path == planday.EmployeesPath:
		json.NewEncoder(w).Encode(map[string]any{"data": f.employees})
	case strings.HasPrefix(r.URL.Path, planday.EmployeesPath+"/"):
		http.NotFound(w, r)
	case r.URL.Path == planday.RevenuePath:
		json.NewEncoder(w).Encode([]map[string]any{{"turnover": f.revenue}})
	case r.URL.Path == planday.BudgetPath:
		json.NewEncoder(w).Encode([]map[string]any{{"amount": f.budget}})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakePlanday) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func defaultPlanday() *fakePlanday {
	return &fakePlanday{
		shifts: []map[string]any{
			{"id": 1, "employeeId": 12345, "status": "Published", "startDateTime": "2025-06-02T10:00:00", "endDateTime": "2025-06-02T18:00:00"},
			{"id": 2, "status": "Open", "startDateTime": "2025-06-02T07:00:00", "endDateTime": "2025-06-02T12:00:00"},
		},
		employees: []map[string]any{{"id": "12345", "firstName": "Anna", "lastName": "B"}},
		revenue:   1500,
		budget:    1200,
	}
}

type testEnv struct {
	app     *app
	server  *httptest.Server
	planday *fakePlanday
}

// newTestEnv builds the real app against fake upstreams. mutate may adjust
// the config before wiring.
func newTestEnv(t *testing.T, fp *fakePlanday, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()
	upstream := httptest.NewServer(fp)
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Planday.BaseURL = upstream.URL
	cfg.Planday.TokenURL = upstream.URL + "/token"
	cfg.Planday.ClientID = "client"
	cfg.Planday.RefreshToken = "refresh"
	cfg.Database.URL = filepath.Join(dir, "portal.db")
	cfg.Finance.Workbook = writeFinanceWorkbook(t, dir)
	cfg.Auth.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	a, cleanup, err := buildApp(context.Background(), cfg, zap.NewNop(), metrics.NewRegistry())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(cleanup)

	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)
	return &testEnv{app: a, server: srv, planday: fp}
}

func writeFinanceWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Week", "Sales", "Forecast", "Labour", "Food Cost"},
		{1, 1000, 900, 300, 250},
		{2, 2000, 2100, 500, 600},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(dir, "finance.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func postJSON(t *testing.T, client *http.Client, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	decodeBody(resp.Body, &out)
	return resp, out
}

func decodeBody(r io.Reader, out any) {
	_ = json.NewDecoder(r).Decode(out)
}
