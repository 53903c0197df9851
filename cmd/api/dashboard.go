package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/middleware"
	"staff-portal/internal/models"
	"staff-portal/internal/revenue"
)

type DashboardSignals struct {
	Date        string `json:"date"`
	Departments string `json:"departments"`
}

type DashboardData struct {
	Date          string
	Departments   string
	Loaded        bool
	Error         string
	Shifts        []models.NormalizedShift
	Revenue       *models.RevenueSummary
	CanSeeRevenue bool
}

// Signals seeds the page's datastar signals from the form values.
func (d DashboardData) Signals() DashboardSignals {
	return DashboardSignals{Date: d.Date, Departments: d.Departments}
}

// splitDepartments reads a comma or space separated list of department ids.
func splitDepartments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';' || r == '\n' || r == '\t'
	})
}

// loadDay fills the dashboard for one day. Failures are shown on the page
// rather than failing the request.
func (a *app) loadDay(ctx context.Context, user *models.User, date, departments string) DashboardData {
	data := DashboardData{
		Date:          date,
		Departments:   departments,
		CanSeeRevenue: user != nil && user.Role.Allows(models.RoleManager),
	}

	q, err := validateDay(splitDepartments(departments), date, nil)
	if err != nil {
		data.Error = err.Error()
		return data
	}

	shifts, err := a.shifts.ShiftsForDay(ctx, a.shiftQuery(q))
	if err != nil {
		logging.FromContext(ctx, a.logger).Warn("dashboard shifts failed", zap.Error(err))
		data.Error = "Could not load shifts: " + err.Error()
		return data
	}
	data.Shifts = shifts

	if data.CanSeeRevenue {
		sum, err := a.revenue.ForDay(ctx, revenue.Query{DepartmentIDs: q.departments, Date: q.date})
		if err != nil {
			logging.FromContext(ctx, a.logger).Warn("dashboard revenue failed", zap.Error(err))
			data.Error = "Could not load revenue: " + err.Error()
		} else {
			data.Revenue = &sum
		}
	}
	data.Loaded = true
	return data
}

func (a *app) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	date := r.URL.Query().Get("date")
	departments := r.URL.Query().Get("departments")

	var data DashboardData
	if date != "" && departments != "" {
		data = a.loadDay(r.Context(), user, date, departments)
	} else {
		data = DashboardData{
			Date:          time.Now().Format(dateLayout),
			Departments:   departments,
			CanSeeRevenue: user != nil && user.Role.Allows(models.RoleManager),
		}
	}
	a.render(w, r, data, "dashboard.html")
}

// handleDashboardDay reloads the shift table and revenue tiles over SSE.
func (a *app) handleDashboardDay(w http.ResponseWriter, r *http.Request) {
	signals := &DashboardSignals{}
	if err := datastar.ReadSignals(r, signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, _ := middleware.UserFrom(r.Context())
	data := a.loadDay(r.Context(), user, strings.TrimSpace(signals.Date), signals.Departments)

	sse := datastar.NewSSE(w, r)
	for _, name := range []string{"shift-table", "revenue-tiles"} {
		html, err := a.fragment(name, data, "dashboard.html")
		if err != nil {
			logging.FromContext(r.Context(), a.logger).Error("fragment render failed", zap.String("fragment", name), zap.Error(err))
			return
		}
		if err := sse.PatchElements(html); err != nil {
			return
		}
	}
}
