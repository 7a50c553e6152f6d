package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/services/features"
	"MacroPull/internal/services/forecast"
	"MacroPull/internal/services/varmodel"
	applogger "MacroPull/pkg/logger"
)

// ForecastUseCase fits a VAR on standardized differences and returns level-space paths.
type ForecastUseCase struct {
	panels   PanelSource
	engine   *features.DifferencingEngine
	inverter *forecast.Inverter
	results  drepo.ForecastStore
	known    map[string]struct{}
	maxLags  int
	steps    int
	metrics  drepo.Metrics
	l        *applogger.Logger
}

func NewForecastUseCase(
	panels PanelSource,
	engine *features.DifferencingEngine,
	inverter *forecast.Inverter,
	results drepo.ForecastStore,
	catalog []models.SeriesInfo,
	maxLags, steps int,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *ForecastUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ForecastUseCase{
		panels:   panels,
		engine:   engine,
		inverter: inverter,
		results:  results,
		known:    catalogSet(catalog),
		maxLags:  maxLags,
		steps:    steps,
		metrics:  metrics,
		l:        l,
	}
}

// Initialize runs differencing, lag selection, fit, forecast and inversion, then
// stores the result under a fresh id for later re-plotting.
func (u *ForecastUseCase) Initialize(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	start := time.Now()
	if err := u.validate(&req); err != nil {
		return models.ForecastResult{}, err
	}

	levels := u.panels.Panel()
	z, err := u.engine.DifferentiateAndStandardize(ctx, levels, req.Series)
	if err != nil {
		u.metrics.RecordError("forecast_standardize")
		return models.ForecastResult{}, err
	}

	model, _, err := varmodel.Fit(z.Select(req.Series), req.Series, req.MaxLags)
	if err != nil {
		u.metrics.RecordError("var_fit")
		return models.ForecastResult{}, err
	}
	u.metrics.RecordLagOrder(model.LagOrder())
	u.metrics.RecordLatency("var_fit", time.Since(start).Seconds())

	fc, err := model.Forecast(req.Steps)
	if err != nil {
		u.metrics.RecordError("var_forecast")
		return models.ForecastResult{}, err
	}

	result, err := u.inverter.Invert(ctx, forecast.InvertInput{
		Forecast: fc,
		Series:   model.Series(),
		Target:   req.Target,
		Levels:   levels,
		LagOrder: model.LagOrder(),
	})
	if err != nil {
		u.metrics.RecordError("forecast_invert")
		return models.ForecastResult{}, err
	}
	result.ID = uuid.NewString()

	if err := u.results.Save(ctx, result); err != nil {
		// the caller still gets the forecast; only re-plot by id is lost
		u.metrics.RecordError("forecast_store")
		u.l.Warn("forecast not stored", applogger.String("forecast_id", result.ID), applogger.Error(err))
		result.Warnings = append(result.Warnings, "forecast could not be stored for re-plotting")
	}

	u.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	u.l.Info("forecast computed",
		applogger.String("forecast_id", result.ID),
		applogger.String("target", req.Target),
		applogger.Strings("series", req.Series),
		applogger.Int("lag_order", model.LagOrder()),
		applogger.Float64("aic", model.AIC()),
		applogger.Bool("degraded", result.Degraded),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return result, nil
}

// Get returns a stored forecast without recomputation.
func (u *ForecastUseCase) Get(ctx context.Context, id string) (models.ForecastResult, error) {
	return u.results.Load(ctx, id)
}

func (u *ForecastUseCase) validate(req *models.ForecastRequest) error {
	if req.MaxLags <= 0 {
		req.MaxLags = u.maxLags
	}
	if req.Steps <= 0 {
		req.Steps = u.steps
	}
	if len(req.Series) < 2 {
		return fmt.Errorf("a VAR needs at least 2 series, got %d: %w", len(req.Series), models.ErrFitFailure)
	}
	if !uniqueIDs(req.Series) {
		return fmt.Errorf("duplicate series in request: %w", models.ErrFitFailure)
	}
	if !slices.Contains(req.Series, req.Target) {
		return fmt.Errorf("target %s is not among the modelled series: %w", req.Target, models.ErrUnknownSeries)
	}
	return checkKnown(u.known, req.Series)
}
