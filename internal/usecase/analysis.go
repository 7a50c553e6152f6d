package usecase

import (
	"context"
	"fmt"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/services/features"
)

// PanelSource yields the current merged panel.
type PanelSource interface {
	Panel() *models.Panel
}

// SeriesView is the payload of the series listing.
type SeriesView struct {
	Catalog []models.SeriesInfo `json:"catalog"`
	Panel   *models.Panel       `json:"panel"`
}

// AnalysisUseCase serves level and standardized views of the loaded panel.
type AnalysisUseCase struct {
	panels  PanelSource
	engine  *features.DifferencingEngine
	catalog []models.SeriesInfo
	known   map[string]struct{}
	metrics drepo.Metrics
}

func NewAnalysisUseCase(panels PanelSource, engine *features.DifferencingEngine, catalog []models.SeriesInfo, metrics drepo.Metrics) *AnalysisUseCase {
	return &AnalysisUseCase{
		panels:  panels,
		engine:  engine,
		catalog: catalog,
		known:   catalogSet(catalog),
		metrics: metrics,
	}
}

// Series returns the catalog and the level panel restricted to ids (all when empty).
// The panel is empty (not an error) when nothing has been loaded.
func (u *AnalysisUseCase) Series(_ context.Context, ids []string) (SeriesView, error) {
	if err := u.checkKnown(ids); err != nil {
		return SeriesView{}, err
	}
	p := u.panels.Panel()
	if len(ids) > 0 && !p.Empty() {
		p = p.Select(ids)
	}
	return SeriesView{Catalog: u.catalog, Panel: p}, nil
}

// Standardized runs the differencing engine over ids and returns only those columns.
func (u *AnalysisUseCase) Standardized(ctx context.Context, ids []string) (*models.Panel, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no series requested: %w", models.ErrUnknownSeries)
	}
	if err := u.checkKnown(ids); err != nil {
		return nil, err
	}
	out, err := u.engine.DifferentiateAndStandardize(ctx, u.panels.Panel(), ids)
	if err != nil {
		u.metrics.RecordError("standardize")
		return nil, err
	}
	return out.Select(ids), nil
}

func (u *AnalysisUseCase) checkKnown(ids []string) error {
	return checkKnown(u.known, ids)
}

func catalogSet(catalog []models.SeriesInfo) map[string]struct{} {
	m := make(map[string]struct{}, len(catalog))
	for _, s := range catalog {
		m[s.ID] = struct{}{}
	}
	return m
}

func checkKnown(known map[string]struct{}, ids []string) error {
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%s: %w", id, models.ErrUnknownSeries)
		}
	}
	return nil
}

// uniqueIDs reports whether ids has no repeats.
func uniqueIDs(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
