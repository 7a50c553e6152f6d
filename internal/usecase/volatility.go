package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
	"MacroPull/internal/services/features"
)

// VolatilityUseCase hands percentage changes of the chosen series to the GARCH collaborator.
type VolatilityUseCase struct {
	panels  PanelSource
	modeler service.VolatilityModeler
	known   map[string]struct{}
	metrics drepo.Metrics
}

func NewVolatilityUseCase(panels PanelSource, modeler service.VolatilityModeler, catalog []models.SeriesInfo, metrics drepo.Metrics) *VolatilityUseCase {
	return &VolatilityUseCase{panels: panels, modeler: modeler, known: catalogSet(catalog), metrics: metrics}
}

func (u *VolatilityUseCase) Fit(ctx context.Context, target string, dependents []string) (models.VolatilityFit, error) {
	start := time.Now()
	ids := append([]string{target}, dependents...)
	if !uniqueIDs(ids) {
		return models.VolatilityFit{}, fmt.Errorf("target repeated among dependents: %w", models.ErrUnknownSeries)
	}
	if err := checkKnown(u.known, ids); err != nil {
		return models.VolatilityFit{}, err
	}

	changes, err := features.PctChange(u.panels.Panel(), ids)
	if err != nil {
		return models.VolatilityFit{}, err
	}
	data := make(map[string][]float64, len(ids))
	for _, id := range ids {
		data[id] = changes.Columns[id]
	}

	fit, err := u.modeler.Fit(ctx, target, dependents, data)
	if err != nil {
		u.metrics.RecordError("volatility")
		return models.VolatilityFit{}, err
	}
	u.metrics.RecordLatency("volatility", time.Since(start).Seconds())
	return fit, nil
}
