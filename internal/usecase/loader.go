package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/repository"
	"MacroPull/internal/services/features"
	applogger "MacroPull/pkg/logger"
)

// SeriesLoader pulls every catalog series, aligns them and swaps the store.
type SeriesLoader struct {
	source   drepo.DataSource
	archive  drepo.ObservationArchive
	store    *repository.SeriesStore
	catalog  []models.SeriesInfo
	freq     models.Frequency
	lookback time.Duration
	metrics  drepo.Metrics
	l        *applogger.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewSeriesLoader creates a loader. archive may be nil.
func NewSeriesLoader(
	source drepo.DataSource,
	archive drepo.ObservationArchive,
	store *repository.SeriesStore,
	catalog []models.SeriesInfo,
	freq models.Frequency,
	lookback time.Duration,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *SeriesLoader {
	if l == nil {
		l = applogger.NewNop()
	}
	return &SeriesLoader{
		source:   source,
		archive:  archive,
		store:    store,
		catalog:  catalog,
		freq:     freq,
		lookback: lookback,
		metrics:  metrics,
		l:        l,
		now:      time.Now,
	}
}

// Refresh fetches the catalog one series at a time. A series that cannot be
// fetched (nor restored from the archive) contributes nothing to the merge.
// The store is replaced only when the whole pass completes.
func (s *SeriesLoader) Refresh(ctx context.Context) (repository.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	raw := make(map[string]models.RawSeries, len(s.catalog))
	ordered := make([]models.RawSeries, 0, len(s.catalog))
	var failed []string

	for _, info := range s.catalog {
		if err := ctx.Err(); err != nil {
			return repository.Snapshot{}, fmt.Errorf("refresh aborted: %w", err)
		}
		series, ok := s.load(ctx, info.ID)
		if !ok {
			failed = append(failed, info.ID)
			continue
		}
		raw[info.ID] = series
		ordered = append(ordered, series)
	}

	panel := features.Align(ordered, s.freq)
	snap := repository.Snapshot{
		Raw:         raw,
		Panel:       panel,
		Failed:      failed,
		RefreshedAt: s.now().UTC(),
	}
	s.store.Replace(snap)

	s.metrics.RecordPanelRows(panel.Len())
	s.metrics.RecordLatency("refresh", time.Since(start).Seconds())
	s.l.Info("series refreshed",
		applogger.Int("series", len(raw)),
		applogger.Int("rows", panel.Len()),
		applogger.Strings("failed", failed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return snap, nil
}

func (s *SeriesLoader) load(ctx context.Context, id string) (models.RawSeries, bool) {
	series, err := s.source.Fetch(ctx, id)
	if err == nil && !series.Empty() {
		s.metrics.RecordFetch(id, true)
		s.writeThrough(ctx, series)
		return series, true
	}

	s.metrics.RecordFetch(id, false)
	if err == nil {
		err = fmt.Errorf("%w: %s: no observations", models.ErrFetch, id)
	}
	s.l.Warn("series fetch failed", applogger.String("series", id), applogger.Error(err))

	if s.archive == nil {
		return models.RawSeries{}, false
	}
	to := s.now().UTC()
	archived, aerr := s.archive.LoadSeries(ctx, id, to.Add(-s.lookback), to)
	if aerr != nil || archived.Empty() {
		if aerr == nil {
			aerr = errors.New("archive empty")
		}
		s.l.Warn("archive fallback failed", applogger.String("series", id), applogger.Error(aerr))
		return models.RawSeries{}, false
	}
	s.l.Info("series restored from archive",
		applogger.String("series", id),
		applogger.Int("observations", archived.Len()),
	)
	return archived, true
}

func (s *SeriesLoader) writeThrough(ctx context.Context, series models.RawSeries) {
	if s.archive == nil {
		return
	}
	if err := s.archive.StoreSeries(ctx, series); err != nil {
		s.metrics.RecordError("archive_store")
		s.l.Warn("archive write failed", applogger.String("series", series.ID), applogger.Error(err))
	}
}
