package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/repository"
	"MacroPull/internal/services/forecast"
	"MacroPull/pkg/metrics"
)

func TestSeriesLoader_RefreshMergesAndRecordsFailures(t *testing.T) {
	src := &fakeSource{
		data: map[string]models.RawSeries{
			"A": daily("A", day(2024, 1, 1), []float64{1, 2, 3, 4, 5}),
			"B": daily("B", day(2024, 1, 2), []float64{10, 20, 30, 40}),
		},
		err: map[string]error{"C": models.ErrFetch},
	}
	store := repository.NewSeriesStore(models.FreqBusinessDay)
	l := NewSeriesLoader(src, nil, store, catalogOf("A", "B", "C"), models.FreqBusinessDay, time.Hour, metrics.Nop{}, nil)

	snap, err := l.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, src.seen, "fetches run sequentially in catalog order")
	assert.Equal(t, []string{"C"}, snap.Failed)
	assert.Equal(t, []string{"A", "B"}, store.Panel().Order)
	assert.Equal(t, 4, store.Panel().Len(), "inner join keeps the common business days")
	assert.True(t, store.Panel().Index[0].Equal(day(2024, 1, 2)))
}

func TestSeriesLoader_ArchiveFallbackAndWriteThrough(t *testing.T) {
	archive := newFakeArchive()
	archive.stored["B"] = daily("B", day(2024, 1, 1), []float64{7, 8, 9})
	src := &fakeSource{
		data: map[string]models.RawSeries{"A": daily("A", day(2024, 1, 1), []float64{1, 2, 3})},
		err:  map[string]error{"B": errors.New("timeout")},
	}
	store := repository.NewSeriesStore(models.FreqBusinessDay)
	l := NewSeriesLoader(src, archive, store, catalogOf("A", "B"), models.FreqBusinessDay, 24*time.Hour, metrics.Nop{}, nil)

	snap, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Failed)
	assert.Equal(t, 3, archive.stored["A"].Len(), "fresh fetches are archived")
	col, ok := store.Panel().Column("B")
	require.True(t, ok)
	assert.Equal(t, []float64{7, 8, 9}, col)
}

func TestSeriesLoader_CancelledContextKeepsPreviousPanel(t *testing.T) {
	src := &fakeSource{data: map[string]models.RawSeries{"A": daily("A", day(2024, 1, 1), []float64{1, 2, 3})}}
	store := repository.NewSeriesStore(models.FreqBusinessDay)
	l := NewSeriesLoader(src, nil, store, catalogOf("A"), models.FreqBusinessDay, time.Hour, metrics.Nop{}, nil)
	_, err := l.Refresh(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, store.Panel().Len())
}

func TestAnalysis_StandardizedAndSeries(t *testing.T) {
	h := newHarness()
	ids := []string{"A", "B"}
	p := randomWalkPanel(ids, 60, 1)
	u := NewAnalysisUseCase(staticPanel{p}, h.engine, catalogOf(ids...), metrics.Nop{})

	z, err := u.Standardized(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, z.Order)
	assert.Equal(t, p.Len()-1, z.Len())

	_, err = u.Standardized(context.Background(), []string{"ZZZ"})
	assert.ErrorIs(t, err, models.ErrUnknownSeries)

	v, err := u.Series(context.Background(), []string{"B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, v.Panel.Order)
	assert.Len(t, v.Catalog, 2)
}

func TestAnalysis_EmptyPanel(t *testing.T) {
	h := newHarness()
	u := NewAnalysisUseCase(staticPanel{models.NewPanel(models.FreqBusinessDay)}, h.engine, catalogOf("A"), metrics.Nop{})

	_, err := u.Standardized(context.Background(), []string{"A"})
	assert.ErrorIs(t, err, models.ErrAlignmentEmpty)

	v, err := u.Series(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.Panel.Empty())
}

func newForecaster(h *harness, p *models.Panel, ids ...string) *ForecastUseCase {
	inv := forecast.NewInverter(h.stats, models.FreqBusinessDay, nil)
	return NewForecastUseCase(staticPanel{p}, h.engine, inv, h.forecasts, catalogOf(ids...), 5, 10, metrics.Nop{}, nil)
}

func TestForecast_InitializeStoresAndReplots(t *testing.T) {
	h := newHarness()
	ids := []string{"A", "B", "C"}
	p := randomWalkPanel(ids, 300, 7)
	u := newForecaster(h, p, ids...)

	res, err := u.Initialize(context.Background(), models.ForecastRequest{Series: ids, Target: "B", MaxLags: 4, Steps: 10})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "B", res.Target)
	assert.Equal(t, ids, res.Series)
	assert.False(t, res.Degraded)
	assert.GreaterOrEqual(t, res.LagOrder, 1)
	assert.LessOrEqual(t, res.LagOrder, 4)
	require.Equal(t, 10, res.Steps())
	last, _ := p.LastTime()
	assert.True(t, res.Index[0].After(last))
	for _, id := range ids {
		require.Len(t, res.Values[id], 10)
		for _, v := range res.Values[id] {
			assert.False(t, math.IsNaN(v))
		}
	}

	again, err := u.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Values, again.Values)
	assert.Equal(t, res.LagOrder, again.LagOrder)
}

func TestForecast_DefaultsAndValidation(t *testing.T) {
	h := newHarness()
	ids := []string{"A", "B"}
	u := newForecaster(h, randomWalkPanel(ids, 120, 3), ids...)

	res, err := u.Initialize(context.Background(), models.ForecastRequest{Series: ids, Target: "A"})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Steps(), "configured default horizon")

	_, err = u.Initialize(context.Background(), models.ForecastRequest{Series: ids, Target: "Z"})
	assert.ErrorIs(t, err, models.ErrUnknownSeries)

	_, err = u.Initialize(context.Background(), models.ForecastRequest{Series: []string{"A"}, Target: "A"})
	assert.ErrorIs(t, err, models.ErrFitFailure)

	_, err = u.Initialize(context.Background(), models.ForecastRequest{Series: []string{"A", "A"}, Target: "A"})
	assert.ErrorIs(t, err, models.ErrFitFailure)

	_, err = u.Initialize(context.Background(), models.ForecastRequest{Series: ids, Target: "A", MaxLags: 200})
	assert.ErrorIs(t, err, models.ErrFitFailure, "too few observations for the lag budget")

	_, err = u.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrForecastNotFound)
}

func TestImpulse_Compute(t *testing.T) {
	ids := []string{"A", "B"}
	p := randomWalkPanel(ids, 200, 11)
	u := NewImpulseUseCase(staticPanel{p}, catalogOf(ids...), 3, metrics.Nop{})

	one, err := u.Compute(context.Background(), models.IRFRequest{Series: ids, Periods: 8})
	require.NoError(t, err)
	two, err := u.Compute(context.Background(), models.IRFRequest{Series: ids, Periods: 8, Shock: shock(2)})
	require.NoError(t, err)

	require.Len(t, one.Responses, 9)
	assert.Equal(t, 1.0, one.Responses[0][0][0])
	for h := range one.Responses {
		for i := range one.Responses[h] {
			for j := range one.Responses[h][i] {
				assert.InDelta(t, 2*one.Responses[h][i][j], two.Responses[h][i][j], 1e-12)
			}
		}
	}

	zero, err := u.Compute(context.Background(), models.IRFRequest{Series: ids, Periods: 8, Shock: shock(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero.Shock)
	for h := range zero.Responses {
		for i := range zero.Responses[h] {
			for j := range zero.Responses[h][i] {
				assert.Zero(t, zero.Responses[h][i][j])
			}
		}
	}

	_, err = u.Compute(context.Background(), models.IRFRequest{Series: []string{"A"}, Periods: 2})
	assert.ErrorIs(t, err, models.ErrFitFailure)
}

type fakeModeler struct {
	data map[string][]float64
}

func (f *fakeModeler) Fit(_ context.Context, target string, deps []string, data map[string][]float64) (models.VolatilityFit, error) {
	f.data = data
	return models.VolatilityFit{Target: target, Dependents: deps, Data: data}, nil
}

func TestVolatility_SendsPctChanges(t *testing.T) {
	ids := []string{"A", "B"}
	p := randomWalkPanel(ids, 30, 5)
	m := &fakeModeler{}
	u := NewVolatilityUseCase(staticPanel{p}, m, catalogOf(ids...), metrics.Nop{})

	fit, err := u.Fit(context.Background(), "A", []string{"B"})
	require.NoError(t, err)
	assert.Equal(t, "A", fit.Target)
	require.Len(t, m.data["A"], p.Len()-1)
	a := p.Columns["A"]
	assert.InDelta(t, a[1]/a[0]-1, m.data["A"][0], 1e-12)

	_, err = u.Fit(context.Background(), "A", []string{"A"})
	assert.Error(t, err)
}

func TestAlerts_ThresholdsAndTest(t *testing.T) {
	h := newHarness()
	catalog := []models.SeriesInfo{{ID: "DGS10", Name: "10Y", Threshold: 2.5}, {ID: "SP500", Name: "S&P"}}
	require.NoError(t, h.thresholds.Seed(context.Background(), catalog))
	u := NewAlertUseCase(h.thresholds, h.dispatcher, catalog)

	list, err := u.Thresholds(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ThresholdView{SeriesID: "DGS10", Name: "10Y", Threshold: 2.5, Enabled: true}, list[0])
	assert.False(t, list[1].Enabled)

	v, err := u.UpdateThreshold(context.Background(), "SP500", 3)
	require.NoError(t, err)
	assert.True(t, v.Enabled)
	_, err = u.UpdateThreshold(context.Background(), "NOPE", 3)
	assert.ErrorIs(t, err, models.ErrUnknownSeries)
	_, err = u.UpdateThreshold(context.Background(), "SP500", 0)
	assert.Error(t, err)

	a, queued, err := u.SendTest(context.Background(), "DGS10")
	require.NoError(t, err)
	assert.True(t, queued)
	assert.True(t, a.Test)
	assert.Equal(t, 2.5, a.Threshold)
	require.Len(t, h.dispatcher.alerts, 1)
	assert.Equal(t, "10Y", h.dispatcher.alerts[0].SeriesName)
}

func TestRefreshScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewRefreshScheduler(RefreshFunc(func(context.Context) error { return nil }), time.Second, nil)
	assert.Error(t, s.Start("not a schedule"))
}

func TestRefreshScheduler_RunNow(t *testing.T) {
	done := make(chan struct{}, 1)
	s := NewRefreshScheduler(RefreshFunc(func(context.Context) error {
		done <- struct{}{}
		return nil
	}), time.Second, nil)
	s.RunNow()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
}

func shock(v float64) *float64 { return &v }
