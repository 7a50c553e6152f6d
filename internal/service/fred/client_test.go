package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func TestClient_FetchSkipsMissingValues(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"observations":[
			{"date":"2024-01-02","value":"4.01"},
			{"date":"2024-01-03","value":"."},
			{"date":"2024-01-04","value":"3.99"}
		]}`))
	}))
	defer srv.Close()

	c := New("secret", WithBaseURL(srv.URL), WithObservationStart("2020-01-01"), WithRateLimit(0, 0))
	s, err := c.Fetch(context.Background(), "DGS10")
	require.NoError(t, err)

	assert.Equal(t, "DGS10", s.ID)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 4.01, s.Observations[0].Value)
	assert.True(t, s.Observations[1].Time.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"DGS10"}, gotQuery["series_id"])
	assert.Equal(t, []string{"secret"}, gotQuery["api_key"])
	assert.Equal(t, []string{"json"}, gotQuery["file_type"])
	assert.Equal(t, []string{"2020-01-01"}, gotQuery["observation_start"])
}

func TestClient_FetchErrorsWrapErrFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") == "BAD" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The series does not exist."}`))
			return
		}
		_, _ = w.Write([]byte(`{"error_code":429,"error_message":"Too Many Requests"}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithRateLimit(0, 0))

	_, err := c.Fetch(context.Background(), "BAD")
	assert.ErrorIs(t, err, models.ErrFetch)

	_, err = c.Fetch(context.Background(), "THROTTLED")
	assert.ErrorIs(t, err, models.ErrFetch)
	assert.Contains(t, err.Error(), "Too Many Requests")
}

func TestClient_FetchHonoursContext(t *testing.T) {
	c := New("k", WithBaseURL("http://127.0.0.1:1"), WithRateLimit(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "DGS10")
	assert.ErrorIs(t, err, models.ErrFetch)
}

func TestReadCSV(t *testing.T) {
	in := "DATE,DGS10\n2024-01-03,4.1\n2024-01-02,4.0\n2024-01-04,.\nnot-a-date,1\n"
	s, err := ReadCSV("DGS10", strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, 4.0, s.Observations[0].Value)
	assert.Equal(t, 4.1, s.Observations[1].Value)
}

func TestCSVSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SP500.csv"), []byte("DATE,SP500\n2024-01-02,4742.83\n"), 0o600))

	src := NewCSVSource(dir)
	s, err := src.Fetch(context.Background(), "SP500")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = src.Fetch(context.Background(), "MISSING")
	assert.ErrorIs(t, err, models.ErrFetch)
}
