// Package finance reads the weekly finance workbook and rolls it up into
// period and quarter KPIs.
package finance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"staff-portal/internal/models"
)

const maxWorkbookBytes = 20 << 20

// workbookFetchTimeout bounds a remote workbook download, including the body.
var workbookFetchTimeout = 30 * time.Second

var headerAliases = map[string][]string{
	"week":     {"week", "week no", "week number", "wk", "week start", "week commencing", "w c"},
	"sales":    {"sales", "net sales", "actual sales", "turnover"},
	"forecast": {"forecast", "sales forecast", "budget", "target"},
	"labour":   {"labour", "labor", "labour cost", "labor cost", "wages"},
	"cogs":     {"food cost", "cogs", "cost of goods", "cost of sales", "food"},
}

var dateFormats = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02/01/06", "2 Jan 2006", "02-Jan-06"}

// LoadWorkbook reads week rows from a local file or an http(s) URL.
// .xls files go through the BIFF reader; anything else is opened as xlsx.
// An empty sheet name selects the first sheet.
func LoadWorkbook(ctx context.Context, source, sheet string) ([]models.WeekRow, error) {
	data, name, err := readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls":
		rows, err = xlsRows(data, sheet)
	default:
		rows, err = xlsxRows(data, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", name, err)
	}
	return parseRows(rows)
}

func readSource(ctx context.Context, source string) ([]byte, string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		return data, source, err
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", err
	}
	client := &http.Client{Timeout: workbookFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch workbook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch workbook: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxWorkbookBytes))
	return data, u.Path, err
}

func xlsxRows(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return f.GetRows(sheet)
}

func xlsRows(data []byte, sheet string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}

	ws := wb.GetSheet(0)
	if sheet != "" {
		ws = nil
		for i := 0; i < wb.NumSheets(); i++ {
			if s := wb.GetSheet(i); s != nil && strings.EqualFold(s.Name, sheet) {
				ws = s
				break
			}
		}
		if ws == nil {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow returns nil for rows the sheet never stored; Row panics on those.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// parseRows finds the header row and reads every row below it that names a week.
func parseRows(rows [][]string) ([]models.WeekRow, error) {
	headerAt, cols := -1, map[string]int{}
	for i, row := range rows {
		if c := matchHeaders(row); c["week"] >= 0 && c["sales"] >= 0 {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("no header row with week and sales columns")
	}

	var out []models.WeekRow
	for _, row := range rows[headerAt+1:] {
		week, start, ok := parseWeek(cellValue(row, cols["week"]))
		if !ok {
			continue
		}
		out = append(out, models.WeekRow{
			Week:      week,
			WeekStart: start,
			Sales:     parseMoney(cellValue(row, cols["sales"])),
			Forecast:  parseMoney(cellValue(row, cols["forecast"])),
			Labour:    parseMoney(cellValue(row, cols["labour"])),
			COGS:      parseMoney(cellValue(row, cols["cogs"])),
		})
	}
	return out, nil
}

func matchHeaders(row []string) map[string]int {
	cols := map[string]int{"week": -1, "sales": -1, "forecast": -1, "labour": -1, "cogs": -1}
	for i, cell := range row {
		h := normalizeHeader(cell)
		for field, aliases := range headerAliases {
			if cols[field] >= 0 {
				continue
			}
			for _, a := range aliases {
				if h == a {
					cols[field] = i
				}
			}
		}
	}
	return cols
}

func normalizeHeader(header string) string {
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(header))
	return strings.Join(strings.Fields(mapped), " ")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseWeek accepts a week number, a date or an Excel date serial. Dates
// yield their ISO week.
func parseWeek(v string) (int, *time.Time, bool) {
	if v == "" {
		return 0, nil, false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		if n >= 1 && n <= 53 && n == float64(int(n)) {
			return int(n), nil, true
		}
		if n >= 20000 && n <= 80000 {
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				return weekOf(t)
			}
		}
		return 0, nil, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return weekOf(t)
		}
	}
	return 0, nil, false
}

func weekOf(t time.Time) (int, *time.Time, bool) {
	_, w := t.ISOWeek()
	return w, &t, true
}

// parseMoney strips currency symbols and separators. Parenthesised values
// are negative; anything unreadable is 0.
func parseMoney(v string) float64 {
	negative := strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")")
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return -1
	}, v)
	n, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	if negative {
		n = -n
	}
	return n
}
