package models

// Shift is the subset of an upstream shift record the portal reads.
// EmployeeID is empty for open shifts.
type Shift struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	DepartmentID string `json:"departmentId"`
}

// NormalizedShift is the presentation shape returned by /shifts-for-day.
type NormalizedShift struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	StartISO     *string `json:"startISO"`
	EndISO       *string `json:"endISO"`
	DepartmentID string  `json:"departmentId"`
}

// Start returns the start timestamp, or "" when missing.
func (s NormalizedShift) Start() string {
	if s.StartISO == nil {
		return ""
	}
	return *s.StartISO
}

// End returns the end timestamp, or "" when missing.
func (s NormalizedShift) End() string {
	if s.EndISO == nil {
		return ""
	}
	return *s.EndISO
}
