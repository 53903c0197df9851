package roster

import (
	"regexp"
	"sort"
	"strings"

	"staff-portal/internal/models"
	"staff-portal/internal/planday"
)

const OpenShiftName = "Open shift"

var placeholderName = regexp.MustCompile(`(?i)^Employee\s*#\d+$`)

// Placeholder is the name shown for an employee whose name is unknown.
func Placeholder(id string) string { return "Employee #" + id }

// IsPlaceholder reports whether name is a bare "Employee #<digits>" label.
func IsPlaceholder(name string) bool {
	return placeholderName.MatchString(strings.TrimSpace(name))
}

// Normalize drops repeated shift ids (first wins), names each shift and
// sorts by start time. Missing starts sort first.
func Normalize(shifts []models.Shift, names map[string]string) []models.NormalizedShift {
	shifts = Dedupe(shifts)
	out := make([]models.NormalizedShift, 0, len(shifts))

	for _, s := range shifts {
		out = append(out, models.NormalizedShift{
			ID:           s.ID,
			Name:         displayName(s, names),
			StartISO:     optional(s.Start),
			EndISO:       optional(s.End),
			DepartmentID: s.DepartmentID,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start() < out[j].Start()
	})
	return out
}

// Dedupe keeps the first shift seen for each id, in input order.
func Dedupe(shifts []models.Shift) []models.Shift {
	seen := make(map[string]bool, len(shifts))
	out := make([]models.Shift, 0, len(shifts))
	for _, s := range shifts {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

func displayName(s models.Shift, names map[string]string) string {
	if s.EmployeeID == "" {
		return OpenShiftName
	}
	if n := strings.TrimSpace(names[s.EmployeeID]); n != "" && !IsPlaceholder(n) {
		return n
	}
	if n := strings.TrimSpace(s.EmployeeName); n != "" && !IsPlaceholder(n) {
		return n
	}
	return Placeholder(s.EmployeeID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// shiftFromRecord reads the fields the portal needs from an upstream shift.
// Records without an id cannot be deduplicated and are dropped.
func shiftFromRecord(r planday.Record, dept string) (models.Shift, bool) {
	s := models.Shift{
		ID:           r.String("id", "shiftId"),
		EmployeeID:   r.String("employeeId"),
		EmployeeName: r.String("employeeName"),
		Start:        r.String("startDateTime", "start", "startTime", "from"),
		End:          r.String("endDateTime", "end", "endTime", "to"),
		DepartmentID: r.String("departmentId"),
	}
	if emp, ok := r["employee"].(map[string]any); ok {
		nested := planday.Record(emp)
		if s.EmployeeID == "" {
			s.EmployeeID = nested.String("id", "employeeId")
		}
		if s.EmployeeName == "" {
			s.EmployeeName = employeeFromRecord(nested).Label()
		}
	}
	if s.DepartmentID == "" {
		s.DepartmentID = dept
	}
	return s, s.ID != ""
}
