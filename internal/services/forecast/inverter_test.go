package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/services/features"
)

type statsMap map[string]models.SeriesStats

func (s statsMap) Get(_ context.Context, id string) (models.SeriesStats, bool, error) {
	v, ok := s[id]
	return v, ok, nil
}

func (s statsMap) Set(_ context.Context, v models.SeriesStats) error {
	s[v.SeriesID] = v
	return nil
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestInvert_ExactRoundTrip(t *testing.T) {
	// Known level paths; the first 20 points are history, the rest is the "future".
	const history, horizon = 20, 8
	levels := map[string][]float64{"A": {}, "B": {}}
	for i := 0; i < history+horizon; i++ {
		x := float64(i)
		levels["A"] = append(levels["A"], 100+3*math.Sin(x/3)+0.1*x)
		levels["B"] = append(levels["B"], 2+0.5*math.Cos(x/2))
	}

	stats := statsMap{}
	z := mat.NewDense(horizon, 2, nil)
	panel := models.NewPanel(models.FreqBusinessDay)
	panel.Index = models.FreqBusinessDay.Range(day(2024, 1, 1), day(2024, 3, 1))[:history]
	for k, id := range []string{"A", "B"} {
		zs, mean, std := features.Standardize(features.FirstDifference(levels[id]))
		stats[id] = models.SeriesStats{SeriesID: id, Mean: mean, Std: std}
		// zs[i] is the move from level i to level i+1
		for s := 0; s < horizon; s++ {
			z.Set(s, k, zs[history-1+s])
		}
		panel.AddColumn(id, levels[id][:history])
	}

	inv := NewInverter(stats, models.FreqBusinessDay, nil)
	res, err := inv.Invert(context.Background(), InvertInput{
		Forecast: z, Series: []string{"A", "B"}, Target: "A", Levels: panel, LagOrder: 2,
	})
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	assert.Equal(t, "A", res.Target)
	assert.Equal(t, []string{"A", "B"}, res.Series)
	assert.Equal(t, 2, res.LagOrder)
	for _, id := range []string{"A", "B"} {
		want := levels[id][history:]
		require.Len(t, res.Values[id], horizon)
		for s := range want {
			assert.InDelta(t, want[s], res.Values[id][s], 1e-9, "%s step %d", id, s)
		}
	}
	assert.Equal(t, res.Values["A"], res.TargetPath())
}

func TestInvert_MissingStatsDegrades(t *testing.T) {
	panel := models.NewPanel(models.FreqDaily)
	panel.Index = models.FreqDaily.Range(day(2024, 1, 1), day(2024, 1, 3))
	panel.AddColumn("A", []float64{1, 2, 10})
	panel.AddColumn("B", []float64{5, 5, 5})

	stats := statsMap{"B": {SeriesID: "B", Mean: 1, Std: 2}}
	inv := NewInverter(stats, models.FreqBusinessDay, nil)

	res, err := inv.Invert(context.Background(), InvertInput{
		Forecast: mat.NewDense(2, 2, []float64{0.5, 1, -1, 0}),
		Series:   []string{"A", "B"},
		Target:   "A",
		Levels:   panel,
	})
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "A")
	assert.Equal(t, []float64{10.5, 9.5}, res.Values["A"])
	assert.Equal(t, []float64{8, 9}, res.Values["B"])
}

func TestInvert_OrdinalWithoutTimeIndex(t *testing.T) {
	panel := models.NewPanel("")
	panel.AddColumn("A", []float64{1, 2, 3, 4})

	inv := NewInverter(statsMap{}, models.FreqBusinessDay, nil)
	res, err := inv.Invert(context.Background(), InvertInput{
		Forecast: mat.NewDense(3, 1, []float64{1, 1, 1}),
		Series:   []string{"A"},
		Target:   "A",
		Levels:   panel,
	})
	require.NoError(t, err)

	assert.Nil(t, res.Index)
	assert.Equal(t, []int{4, 5, 6}, res.Ordinal)
	assert.Equal(t, 3, res.Steps())
}

func TestInvert_Errors(t *testing.T) {
	inv := NewInverter(statsMap{}, models.FreqBusinessDay, nil)
	panel := models.NewPanel(models.FreqDaily)
	panel.AddColumn("A", []float64{1, 2})

	_, err := inv.Invert(context.Background(), InvertInput{
		Forecast: mat.NewDense(1, 2, nil), Series: []string{"A"}, Levels: panel,
	})
	assert.Error(t, err)

	_, err = inv.Invert(context.Background(), InvertInput{
		Forecast: mat.NewDense(1, 1, nil), Series: []string{"Z"}, Levels: panel,
	})
	assert.ErrorIs(t, err, models.ErrUnknownSeries)
}
