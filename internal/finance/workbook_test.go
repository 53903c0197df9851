package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows to an xlsx under dir and returns its path.
func writeWorkbook(t *testing.T, dir, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(dir, "finance.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var sampleRows = [][]interface{}{
	{"Weekly finance"},
	{},
	{"Week", "Net Sales (£)", "Forecast", "Labor Cost", "Food Cost"},
	{1, 10000, 9500, 2500, 3000},
	{2, "£12,000.00", "11,000", "3,000", "(100)"},
	{},
	{"Total", 22000, 20500, 5500, 2900},
}

func TestLoadWorkbook_XLSX(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), "Sheet1", sampleRows)

	rows, err := LoadWorkbook(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Week)
	assert.Equal(t, 10000.0, rows[0].Sales)
	assert.Equal(t, 2500.0, rows[0].Labour)
	assert.Equal(t, 12000.0, rows[1].Sales)
	assert.Equal(t, 11000.0, rows[1].Forecast)
	assert.Equal(t, -100.0, rows[1].COGS)
}

func TestLoadWorkbook_NamedSheetAndDates(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), "FY25", [][]interface{}{
		{"Week Commencing", "Sales", "Labour", "COGS"},
		{"2025-03-24", 500, 100, 150},
	})

	rows, err := LoadWorkbook(context.Background(), path, "FY25")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 13, rows[0].Week)
	require.NotNil(t, rows[0].WeekStart)
	assert.Equal(t, "2025-03-24", rows[0].WeekStart.Format("2006-01-02"))
	assert.Equal(t, 0.0, rows[0].Forecast)
}

func TestLoadWorkbook_FromURL(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), "Sheet1", sampleRows)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export/finance.xlsx" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer ts.Close()

	rows, err := LoadWorkbook(context.Background(), ts.URL+"/export/finance.xlsx", "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = LoadWorkbook(context.Background(), ts.URL+"/missing.xlsx", "")
	assert.Error(t, err)
}

func TestLoadWorkbook_FromURLTimesOut(t *testing.T) {
	old := workbookFetchTimeout
	workbookFetchTimeout = 100 * time.Millisecond
	t.Cleanup(func() { workbookFetchTimeout = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	started := time.Now()
	_, err := LoadWorkbook(context.Background(), srv.URL+"/finance.xlsx", "")
	require.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestLoadWorkbook_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadWorkbook(context.Background(), filepath.Join(dir, "absent.xlsx"), "")
	assert.Error(t, err)

	bogus := filepath.Join(dir, "legacy.xls")
	require.NoError(t, os.WriteFile(bogus, []byte("not a workbook"), 0o644))
	_, err = LoadWorkbook(context.Background(), bogus, "")
	assert.Error(t, err)

	noHeader := writeWorkbook(t, dir, "Sheet1", [][]interface{}{{"a", "b"}, {1, 2}})
	_, err = LoadWorkbook(context.Background(), noHeader, "")
	assert.ErrorContains(t, err, "no header row")
}

func TestParseMoney(t *testing.T) {
	cases := map[string]float64{
		"":         0,
		"1,234.50": 1234.5,
		"£99":      99,
		"€ 1 000":  1000,
		"(250.00)": -250,
		"-12.5":    -12.5,
		"n/a":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseMoney(in), in)
	}
}

func TestParseWeek(t *testing.T) {
	w, start, ok := parseWeek("7")
	assert.True(t, ok)
	assert.Equal(t, 7, w)
	assert.Nil(t, start)

	// 45740 is 2025-03-24 as an Excel serial
	w, start, ok = parseWeek("45740")
	assert.True(t, ok)
	assert.Equal(t, 13, w)
	assert.Equal(t, "2025-03-24", start.Format("2006-01-02"))

	w, _, ok = parseWeek("24/03/2025")
	assert.True(t, ok)
	assert.Equal(t, 13, w)

	for _, bad := range []string{"", "0", "54", "2.5", "Total"} {
		_, _, ok := parseWeek(bad)
		assert.False(t, ok, bad)
	}
}
