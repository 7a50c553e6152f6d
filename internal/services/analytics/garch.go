package analytics

import (
	"context"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	domsvc "MacroPull/internal/domain/service"
)

const garchFitPath = "/garch/fit"

// HTTPGarchModeler delegates GARCH-family fits to the external model service.
// The response is passed through untouched apart from stamping target and time.
type HTTPGarchModeler struct {
	base     *HTTPServiceBase
	attempts int
	now      func() time.Time
}

var _ domsvc.VolatilityModeler = (*HTTPGarchModeler)(nil)

func NewHTTPGarchModeler(baseURL string, timeout time.Duration) *HTTPGarchModeler {
	return &HTTPGarchModeler{base: NewHTTPServiceBase(baseURL, timeout), attempts: 2, now: time.Now}
}

type garchReq struct {
	Target     string               `json:"target"`
	Dependents []string             `json:"dependents"`
	Data       map[string][]float64 `json:"data"`
}

type garchResp struct {
	Models      map[string]map[string]any `json:"models"`
	Correlation [][]float64               `json:"correlation"`
	Data        map[string][]float64      `json:"data"`
}

func (m *HTTPGarchModeler) Fit(ctx context.Context, target string, dependents []string, data map[string][]float64) (models.VolatilityFit, error) {
	if _, ok := data[target]; !ok {
		return models.VolatilityFit{}, fmt.Errorf("%w: %s", models.ErrUnknownSeries, target)
	}
	var gr garchResp
	req := garchReq{Target: target, Dependents: dependents, Data: data}
	if err := m.base.PostJSONWithRetry(ctx, garchFitPath, req, &gr, m.attempts); err != nil {
		return models.VolatilityFit{}, fmt.Errorf("%w: garch fit %s: %w", models.ErrModelService, target, err)
	}
	out := models.VolatilityFit{
		Target:      target,
		Dependents:  dependents,
		Models:      gr.Models,
		Correlation: gr.Correlation,
		Data:        gr.Data,
		Timestamp:   m.now().UTC(),
	}
	if out.Data == nil {
		out.Data = data
	}
	return out, nil
}
