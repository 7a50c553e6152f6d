package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/services/features"
	"MacroPull/internal/services/varmodel"
)

// ImpulseUseCase fits a VAR on percentage changes and returns scaled impulse responses.
type ImpulseUseCase struct {
	panels  PanelSource
	known   map[string]struct{}
	maxLags int
	metrics drepo.Metrics
}

func NewImpulseUseCase(panels PanelSource, catalog []models.SeriesInfo, maxLags int, metrics drepo.Metrics) *ImpulseUseCase {
	return &ImpulseUseCase{panels: panels, known: catalogSet(catalog), maxLags: maxLags, metrics: metrics}
}

func (u *ImpulseUseCase) Compute(_ context.Context, req models.IRFRequest) (models.IRFResult, error) {
	start := time.Now()
	if req.MaxLags <= 0 {
		req.MaxLags = u.maxLags
	}
	if len(req.Series) < 2 || !uniqueIDs(req.Series) {
		return models.IRFResult{}, fmt.Errorf("impulse responses need at least 2 distinct series: %w", models.ErrFitFailure)
	}
	if err := checkKnown(u.known, req.Series); err != nil {
		return models.IRFResult{}, err
	}

	changes, err := features.PctChange(u.panels.Panel(), req.Series)
	if err != nil {
		return models.IRFResult{}, err
	}
	model, _, err := varmodel.Fit(changes, req.Series, req.MaxLags)
	if err != nil {
		u.metrics.RecordError("irf_fit")
		return models.IRFResult{}, err
	}
	u.metrics.RecordLagOrder(model.LagOrder())

	res, err := varmodel.ComputeIRF(model, req.Periods, req.ShockSize())
	if err != nil {
		u.metrics.RecordError("irf")
		return models.IRFResult{}, err
	}
	u.metrics.RecordLatency("irf", time.Since(start).Seconds())
	return res, nil
}
