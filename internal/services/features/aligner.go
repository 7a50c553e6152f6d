package features

import (
	"math"
	"sort"
	"time"

	"MacroPull/internal/domain/models"
)

// Align resamples every non-empty series onto freq and inner-joins them into one panel.
//
// Within a series the last observation of each bin wins. The bin grid spans the
// series' first to last bin; empty bins are forward filled and then back filled.
// Only bins present in every resampled series survive the merge. Empty series are
// excluded; when nothing survives the result is an empty panel.
func Align(series []models.RawSeries, freq models.Frequency) *models.Panel {
	if !models.IsValidFrequency(freq) {
		freq = models.DefaultFrequency()
	}

	type resampled struct {
		id     string
		values map[time.Time]float64
	}

	var (
		kept   []resampled
		counts = map[time.Time]int{}
	)
	for _, s := range series {
		grid, values := Resample(s, freq)
		if len(grid) == 0 {
			continue
		}
		byLabel := make(map[time.Time]float64, len(grid))
		for i, t := range grid {
			byLabel[t] = values[i]
			counts[t]++
		}
		kept = append(kept, resampled{id: s.ID, values: byLabel})
	}

	panel := models.NewPanel(freq)
	if len(kept) == 0 {
		return panel
	}

	index := make([]time.Time, 0, len(counts))
	for t, n := range counts {
		if n == len(kept) {
			index = append(index, t)
		}
	}
	if len(index) == 0 {
		return panel
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	panel.Index = index
	for _, r := range kept {
		col := make([]float64, len(index))
		for i, t := range index {
			col[i] = r.values[t]
		}
		panel.AddColumn(r.id, col)
	}
	return panel
}

// Resample bins one series onto freq and fills the gaps of its own grid.
// Non-finite values count as missing. It returns the bin labels and the filled values.
func Resample(s models.RawSeries, freq models.Frequency) ([]time.Time, []float64) {
	obs := make([]models.Observation, 0, len(s.Observations))
	for _, o := range s.Observations {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, nil
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Time.Before(obs[j].Time) })

	last := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		last[freq.Floor(o.Time)] = o.Value
	}

	grid := freq.Range(obs[0].Time, obs[len(obs)-1].Time)
	values := make([]float64, len(grid))
	present := make([]bool, len(grid))
	for i, t := range grid {
		values[i], present[i] = last[t]
	}
	fillForward(values, present)
	fillBackward(values, present)
	return grid, values
}

func fillForward(values []float64, present []bool) {
	for i := 1; i < len(values); i++ {
		if !present[i] && present[i-1] {
			values[i] = values[i-1]
			present[i] = true
		}
	}
}

func fillBackward(values []float64, present []bool) {
	for i := len(values) - 2; i >= 0; i-- {
		if !present[i] && present[i+1] {
			values[i] = values[i+1]
			present[i] = true
		}
	}
}
