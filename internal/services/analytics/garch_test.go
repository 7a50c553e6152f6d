package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func TestGarchModeler_PostsPanelAndDecodes(t *testing.T) {
	var got garchReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, garchFitPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"models":{"SP500":{"omega":0.01,"alpha":0.1,"beta":0.85}},"correlation":[[1,0.3],[0.3,1]]}`))
	}))
	defer srv.Close()

	m := NewHTTPGarchModeler(srv.URL, time.Second)
	data := map[string][]float64{"SP500": {0.1, -0.2}, "DGS10": {0.01, 0.02}}
	fit, err := m.Fit(context.Background(), "SP500", []string{"DGS10"}, data)
	require.NoError(t, err)

	assert.Equal(t, "SP500", got.Target)
	assert.Equal(t, []string{"DGS10"}, got.Dependents)
	assert.Equal(t, data, got.Data)

	assert.Equal(t, "SP500", fit.Target)
	assert.Equal(t, 0.85, fit.Models["SP500"]["beta"])
	assert.Equal(t, 0.3, fit.Correlation[0][1])
	assert.Equal(t, data, fit.Data)
	assert.False(t, fit.Timestamp.IsZero())
}

func TestGarchModeler_RetriesServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewHTTPGarchModeler(srv.URL, time.Second)
	_, err := m.Fit(context.Background(), "SP500", nil, map[string][]float64{"SP500": {1}})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	_, err = m.Fit(context.Background(), "MISSING", nil, map[string][]float64{"SP500": {1}})
	assert.ErrorIs(t, err, models.ErrUnknownSeries)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostJSONWithRetry_StopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	b := NewHTTPServiceBase(srv.URL, time.Second)
	err := b.PostJSONWithRetry(context.Background(), "/x", map[string]int{"a": 1}, nil, 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostJSON_NotInitialized(t *testing.T) {
	b := NewHTTPServiceBase("", time.Second)
	assert.Error(t, b.PostJSON(context.Background(), "/x", nil, nil))
}
