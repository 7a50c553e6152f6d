package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordFetch("DGS10", true)
	r.RecordFetch("DGS10", false)
	r.RecordFetch("DGS10", false)
	r.RecordAlert("DGS10", "dropped")
	r.RecordPanelRows(42)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				got[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				got[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 3.0, got["macropull_series_fetch_total"])
	assert.Equal(t, 1.0, got["macropull_alerts_total"])
	assert.Equal(t, 42.0, got["macropull_panel_rows"])
}
