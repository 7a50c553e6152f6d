package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type SeriesRequest struct {
	IDs string `query:"ids" json:"ids"`
}

type StandardizedRequest struct {
	IDs string `query:"ids" json:"ids" validate:"required"`
}

type ThresholdUpdateRequest struct {
	SeriesID  string  `json:"series_id" validate:"required"`
	Threshold float64 `json:"threshold" validate:"gt=0"`
}

type ForecastRequest struct {
	Series  []string `json:"series" validate:"required,min=2,dive,required"`
	Target  string   `json:"target" validate:"required"`
	MaxLags int      `json:"max_lags" default:"5" validate:"gte=1,lte=30"`
	Steps   int      `json:"steps" default:"10" validate:"gte=1,lte=250"`
}

type IRFRequest struct {
	Series  []string `json:"series" validate:"required,min=2,dive,required"`
	MaxLags int      `json:"max_lags" default:"5" validate:"gte=1,lte=30"`
	Periods int      `json:"periods" default:"10" validate:"gte=1,lte=100"`
	Shock   *float64 `json:"shock"` // nil means a unit shock; 0 is a valid request
}

// ShockSize returns the requested shock, 1 when the field was omitted.
func (r IRFRequest) ShockSize() float64 {
	if r.Shock == nil {
		return 1
	}
	return *r.Shock
}

type VolatilityRequest struct {
	Target     string   `json:"target" validate:"required"`
	Dependents []string `json:"dependents" validate:"dive,required"`
}

type TestAlertRequest struct {
	SeriesID string `json:"series_id" validate:"required"`
}
