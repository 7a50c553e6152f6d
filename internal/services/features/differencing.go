package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
	applogger "MacroPull/pkg/logger"
	"MacroPull/pkg/metrics"
)

// DifferencingEngine turns level columns into standardized first differences,
// remembers the moments needed to undo that, and raises threshold alerts.
type DifferencingEngine struct {
	stats      repository.StatsStore
	thresholds repository.ThresholdStore
	dispatcher service.AlertDispatcher
	names      map[string]string
	logger     *applogger.Logger
	metrics    repository.Metrics
	now        func() time.Time
}

// EngineOption configures DifferencingEngine.
type EngineOption func(*DifferencingEngine)

// WithSeriesNames sets the display names used in alerts.
func WithSeriesNames(names map[string]string) EngineOption {
	return func(e *DifferencingEngine) { e.names = names }
}

// WithClock overrides the alert timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *DifferencingEngine) { e.now = now }
}

func NewDifferencingEngine(
	stats repository.StatsStore,
	thresholds repository.ThresholdStore,
	dispatcher service.AlertDispatcher,
	logger *applogger.Logger,
	m repository.Metrics,
	opts ...EngineOption,
) *DifferencingEngine {
	e := &DifferencingEngine{
		stats:      stats,
		thresholds: thresholds,
		dispatcher: dispatcher,
		names:      map[string]string{},
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = applogger.NewNop()
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	return e
}

// DifferentiateAndStandardize returns a panel one row shorter than panel in which
// every id is replaced by its standardized first difference. Other columns keep
// their original values on the shortened index. Stats for each id are overwritten
// and a threshold alert is enqueued when |z_last| exceeds the series threshold.
func (e *DifferencingEngine) DifferentiateAndStandardize(ctx context.Context, panel *models.Panel, ids []string) (*models.Panel, error) {
	if panel.Empty() {
		return nil, models.ErrAlignmentEmpty
	}
	for _, id := range ids {
		if !panel.Has(id) {
			return nil, fmt.Errorf("%s: %w", id, models.ErrUnknownSeries)
		}
	}
	if panel.Len() < MinObservations {
		return nil, fmt.Errorf("differencing needs %d observations, have %d: %w",
			MinObservations, panel.Len(), models.ErrInsufficientData)
	}

	// repeated ids are processed once, in first-seen order
	requested := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := requested[id]; !dup {
			requested[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	standardized := make(map[string][]float64, len(unique))
	computedAt := e.now().UTC()
	for _, id := range unique {
		z, mean, std := Standardize(FirstDifference(panel.Columns[id]))
		standardized[id] = z

		if err := e.stats.Set(ctx, models.SeriesStats{SeriesID: id, Mean: mean, Std: std, ComputedAt: computedAt}); err != nil {
			e.metrics.RecordError("stats_store")
			return nil, fmt.Errorf("store stats for %s: %w", id, err)
		}
		if std == 0 {
			e.logger.Warn("zero variance first difference", applogger.String("series", id))
		}
	}

	out := models.NewPanel(panel.Frequency)
	if panel.TimeIndexed() {
		out.Index = panel.Index[1:]
	}
	for _, id := range panel.Order {
		if _, ok := requested[id]; ok {
			out.AddColumn(id, standardized[id])
			continue
		}
		out.AddColumn(id, panel.Columns[id][1:])
	}

	for _, id := range unique {
		z := standardized[id]
		e.checkThreshold(ctx, id, z[len(z)-1])
	}
	return out, nil
}

// ExceedsThreshold reports whether |z| is strictly greater than threshold.
func ExceedsThreshold(z, threshold float64) bool {
	return math.Abs(z) > threshold
}

func (e *DifferencingEngine) checkThreshold(ctx context.Context, id string, z float64) {
	threshold, ok, err := e.thresholds.Get(ctx, id)
	if err != nil {
		e.logger.Warn("threshold lookup failed", applogger.String("series", id), applogger.Error(err))
		return
	}
	if !ok || !ExceedsThreshold(z, threshold) {
		return
	}

	alert := models.Alert{
		ID:         uuid.New().String(),
		SeriesID:   id,
		SeriesName: e.displayName(id),
		Threshold:  threshold,
		Value:      z,
		FiredAt:    e.now().UTC(),
	}
	if e.dispatcher == nil {
		return
	}
	if e.dispatcher.Enqueue(alert) {
		e.logger.Info("threshold alert enqueued",
			applogger.String("series", id),
			applogger.Float64("z", z),
			applogger.Float64("threshold", threshold),
		)
		return
	}
	e.logger.Warn("threshold alert dropped", applogger.String("series", id))
}

func (e *DifferencingEngine) displayName(id string) string {
	if name, ok := e.names[id]; ok && name != "" {
		return name
	}
	return id
}
