package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, upstream string) string {
	t.Helper()
	cfg := "planday:\n" +
		"  base_url: " + upstream + "\n" +
		"  token_url: " + upstream + "/token\n" +
		"  client_id: cli\n" +
		"  refresh_token: rt\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
		case strings.HasSuffix(r.URL.Path, "/shifts"):
			if r.URL.Query().Get("shiftStatus") != "Open" {
				w.Write([]byte(`{"data":[]}`))
				return
			}
			w.Write([]byte(`{"data":[{"id":7,"startDateTime":"2025-06-02T09:00:00","endDateTime":"2025-06-02T17:00:00"}]}`))
		case strings.HasSuffix(r.URL.Path, "/revenue"):
			w.Write([]byte(`[{"turnover":250.5}]`))
		case strings.HasSuffix(r.URL.Path, "/budget"):
			w.Write([]byte(`[{"amount":300}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestFetchShifts(t *testing.T) {
	srv := fakeUpstream(t)
	out, err := run(t, "shifts", "-c", writeConfig(t, srv.URL), "--date", "2025-06-02", "--dept", "10", "--status", "Open")
	require.NoError(t, err)

	var got struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Open shift", got.Items[0]["name"])
	assert.Equal(t, "10", got.Items[0]["departmentId"])
}

func TestFetchRevenue(t *testing.T) {
	srv := fakeUpstream(t)
	out, err := run(t, "revenue", "-c", writeConfig(t, srv.URL), "--date", "2025-06-03", "--dept", "10,11")
	require.NoError(t, err)

	var got map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 501.0, got["todayActual"])
	assert.Equal(t, 600.0, got["weekForecast"])
}

func TestFetchRejectsBadDate(t *testing.T) {
	srv := fakeUpstream(t)
	_, err := run(t, "shifts", "-c", writeConfig(t, srv.URL), "--date", "03/06/2025", "--dept", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}
