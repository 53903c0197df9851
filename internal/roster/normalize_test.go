package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-portal/internal/models"
	"staff-portal/internal/planday"
)

func TestNormalize_UniqueIDsFirstWins(t *testing.T) {
	shifts := []models.Shift{
		{ID: "a", EmployeeID: "1", Start: "2025-06-02T09:00:00"},
		{ID: "b", Start: "2025-06-02T08:00:00"},
		{ID: "a", EmployeeID: "2", Start: "2025-06-02T07:00:00"},
	}
	out := Normalize(shifts, map[string]string{"1": "First", "2": "Second"})

	require.Len(t, out, 2)
	ids := map[string]bool{}
	for _, s := range out {
		assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
		ids[s.ID] = true
	}
	assert.Equal(t, "First", out[1].Name)
}

func TestNormalize_NamePriority(t *testing.T) {
	names := map[string]string{"1": "Resolved", "4": "Employee #4"}
	shifts := []models.Shift{
		{ID: "s1", EmployeeID: "1", EmployeeName: "Upstream"},
		{ID: "s2", EmployeeID: "2", EmployeeName: "Upstream Two"},
		{ID: "s3", EmployeeID: "3", EmployeeName: "employee  #77"},
		{ID: "s4", EmployeeID: "4", EmployeeName: "Real Four"},
		{ID: "s5", EmployeeID: "5"},
		{ID: "s6", EmployeeName: "Ghost"},
	}

	got := map[string]string{}
	for _, s := range Normalize(shifts, names) {
		got[s.ID] = s.Name
	}
	assert.Equal(t, map[string]string{
		"s1": "Resolved",
		"s2": "Upstream Two",
		"s3": "Employee #3",
		"s4": "Real Four",
		"s5": "Employee #5",
		"s6": "Open shift",
	}, got)
}

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"Employee #1", "employee#42", "EMPLOYEE   #7", " Employee #9 "} {
		assert.True(t, IsPlaceholder(s), s)
	}
	for _, s := range []string{"Employee #", "Employee #1a", "Anna Employee #1", "Employee 12"} {
		assert.False(t, IsPlaceholder(s), s)
	}
}

func TestNormalize_SortedByStartMissingFirst(t *testing.T) {
	shifts := []models.Shift{
		{ID: "c", Start: "2025-06-02T12:00:00"},
		{ID: "a", Start: "2025-06-02T06:00:00"},
		{ID: "nil1"},
		{ID: "b", Start: "2025-06-02T06:00:00"},
		{ID: "nil2"},
	}
	out := Normalize(shifts, nil)

	var order []string
	for i, s := range out {
		order = append(order, s.ID)
		if i > 0 {
			assert.LessOrEqual(t, out[i-1].Start(), s.Start())
		}
	}
	assert.Equal(t, []string{"nil1", "nil2", "a", "b", "c"}, order)
	assert.Nil(t, out[0].StartISO)
	assert.Nil(t, out[0].EndISO)
}

func TestShiftFromRecord(t *testing.T) {
	s, ok := shiftFromRecord(planday.Record{
		"id":        101.0,
		"employee":  map[string]any{"id": 55.0, "firstName": "Nested", "lastName": "Name"},
		"startTime": "2025-06-02T09:00:00",
		"to":        "2025-06-02T17:00:00",
	}, "12345")
	require.True(t, ok)
	assert.Equal(t, models.Shift{
		ID:           "101",
		EmployeeID:   "55",
		EmployeeName: "Nested Name",
		Start:        "2025-06-02T09:00:00",
		End:          "2025-06-02T17:00:00",
		DepartmentID: "12345",
	}, s)

	_, ok = shiftFromRecord(planday.Record{"employeeId": 1.0}, "1")
	assert.False(t, ok)
}
