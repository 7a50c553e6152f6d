package models

import "time"

// ForecastResult is a level-space forecast path with a forward index.
// It is the serializable value handed to the UI and handed back for re-plotting.
type ForecastResult struct {
	ID        string               `json:"id"`
	Target    string               `json:"target"`
	Series    []string             `json:"series"`
	Frequency Frequency            `json:"frequency,omitempty"`
	Index     []time.Time          `json:"index,omitempty"`
	Ordinal   []int                `json:"ordinal,omitempty"`
	Values    map[string][]float64 `json:"values"`
	LagOrder  int                  `json:"lag_order"`
	Degraded  bool                 `json:"degraded"`
	Warnings  []string             `json:"warnings,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Steps returns the forecast horizon.
func (r ForecastResult) Steps() int {
	if len(r.Index) > 0 {
		return len(r.Index)
	}
	return len(r.Ordinal)
}

// TargetPath returns the forecast values of the target series.
func (r ForecastResult) TargetPath() []float64 { return r.Values[r.Target] }

// IRFResult holds scaled impulse responses.
// Responses[h][i][j] is the response of Series[i] at horizon h to an impulse in Series[j].
type IRFResult struct {
	Series    []string      `json:"series"`
	Periods   int           `json:"periods"`
	Shock     float64       `json:"shock"`
	LagOrder  int           `json:"lag_order"`
	Responses [][][]float64 `json:"responses"`
}

// Response returns the path of `response` to an impulse in `impulse`.
func (r IRFResult) Response(response, impulse string) ([]float64, bool) {
	ri, ii := -1, -1
	for k, id := range r.Series {
		if id == response {
			ri = k
		}
		if id == impulse {
			ii = k
		}
	}
	if ri < 0 || ii < 0 {
		return nil, false
	}
	out := make([]float64, len(r.Responses))
	for h := range r.Responses {
		out[h] = r.Responses[h][ri][ii]
	}
	return out, true
}

// VolatilityFit is the opaque output of the external GARCH collaborator.
type VolatilityFit struct {
	Target      string                    `json:"target"`
	Dependents  []string                  `json:"dependents"`
	Models      map[string]map[string]any `json:"models"`
	Correlation [][]float64               `json:"correlation"`
	Data        map[string][]float64      `json:"data"`
	Timestamp   time.Time                 `json:"timestamp"`
}
