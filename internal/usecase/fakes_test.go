package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/repository"
	"MacroPull/internal/services/features"
	"MacroPull/pkg/cache"
	"MacroPull/pkg/metrics"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type staticPanel struct{ p *models.Panel }

func (s staticPanel) Panel() *models.Panel { return s.p }

type fakeSource struct {
	data map[string]models.RawSeries
	err  map[string]error
	mu   sync.Mutex
	seen []string
}

func (f *fakeSource) Fetch(_ context.Context, id string) (models.RawSeries, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if err := f.err[id]; err != nil {
		return models.RawSeries{}, err
	}
	return f.data[id], nil
}

type fakeArchive struct {
	stored map[string]models.RawSeries
	failOn string
}

func newFakeArchive() *fakeArchive { return &fakeArchive{stored: map[string]models.RawSeries{}} }

func (a *fakeArchive) StoreSeries(_ context.Context, s models.RawSeries) error {
	if s.ID == a.failOn {
		return errors.New("archive down")
	}
	a.stored[s.ID] = s
	return nil
}

func (a *fakeArchive) LoadSeries(_ context.Context, id string, _, _ time.Time) (models.RawSeries, error) {
	return a.stored[id], nil
}

func (a *fakeArchive) Health(context.Context) error { return nil }
func (a *fakeArchive) Close() error                 { return nil }

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []models.Alert
	accept bool
}

func (d *recordingDispatcher) Enqueue(a models.Alert) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, a)
	return d.accept
}

// daily builds a business-day series from values.
func daily(id string, start time.Time, values []float64) models.RawSeries {
	idx := models.FreqBusinessDay.Range(start, start.AddDate(0, 0, 2*len(values)+7))[:len(values)]
	s := models.RawSeries{ID: id}
	for i, v := range values {
		s.Observations = append(s.Observations, models.Observation{Time: idx[i], Value: v})
	}
	return s
}

// randomWalkPanel builds K correlated random walks of n business days.
func randomWalkPanel(ids []string, n int, seed uint64) *models.Panel {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
	series := make([]models.RawSeries, len(ids))
	levels := make([]float64, len(ids))
	cols := make([][]float64, len(ids))
	for i := range ids {
		levels[i] = 100 + 10*float64(i)
	}
	prev := make([]float64, len(ids))
	for t := 0; t < n; t++ {
		common := rng.NormFloat64()
		for i := range ids {
			shock := 0.4*prev[i] + 0.5*common + rng.NormFloat64()
			prev[i] = shock
			levels[i] += shock
			cols[i] = append(cols[i], levels[i])
		}
	}
	for i, id := range ids {
		series[i] = daily(id, day(2023, 1, 2), cols[i])
	}
	return features.Align(series, models.FreqBusinessDay)
}

type harness struct {
	stats      *repository.CacheStatsStore
	thresholds *repository.CacheThresholdStore
	forecasts  *repository.CacheForecastStore
	dispatcher *recordingDispatcher
	engine     *features.DifferencingEngine
}

func newHarness() *harness {
	c := cache.NewMemoryCache()
	h := &harness{
		stats:      repository.NewCacheStatsStore(c),
		thresholds: repository.NewCacheThresholdStore(c),
		forecasts:  repository.NewCacheForecastStore(c, time.Hour),
		dispatcher: &recordingDispatcher{accept: true},
	}
	h.engine = features.NewDifferencingEngine(h.stats, h.thresholds, h.dispatcher, nil, metrics.Nop{})
	return h
}

func catalogOf(ids ...string) []models.SeriesInfo {
	out := make([]models.SeriesInfo, len(ids))
	for i, id := range ids {
		out[i] = models.SeriesInfo{ID: id, Name: id + " name", Threshold: 2}
	}
	return out
}
