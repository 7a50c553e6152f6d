package repository

import (
	"context"
	"time"

	"MacroPull/internal/domain/models"
)

// DataSource yields the raw observation history of one series.
type DataSource interface {
	Fetch(ctx context.Context, seriesID string) (models.RawSeries, error)
}

// ObservationArchive stores fetched observations and serves them back when the source is down.
type ObservationArchive interface {
	StoreSeries(ctx context.Context, s models.RawSeries) error
	LoadSeries(ctx context.Context, seriesID string, from, to time.Time) (models.RawSeries, error)
	Health(ctx context.Context) error
	Close() error
}

// StatsStore keeps the latest differencing moments per series (last write wins).
type StatsStore interface {
	Get(ctx context.Context, seriesID string) (models.SeriesStats, bool, error)
	Set(ctx context.Context, stats models.SeriesStats) error
}

// ThresholdStore maps series identifiers to alert thresholds.
type ThresholdStore interface {
	Get(ctx context.Context, seriesID string) (float64, bool, error)
	Set(ctx context.Context, seriesID string, threshold float64) error
	All(ctx context.Context) (map[string]float64, error)
}

// ForecastStore keeps serialized forecast results so they can be re-plotted by id.
type ForecastStore interface {
	Save(ctx context.Context, r models.ForecastResult) error
	Load(ctx context.Context, id string) (models.ForecastResult, error)
}

// Metrics records pipeline telemetry.
type Metrics interface {
	RecordFetch(seriesID string, ok bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLagOrder(lag int)
	RecordAlert(seriesID, outcome string)
	RecordPanelRows(rows int)
}
