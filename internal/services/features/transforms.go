package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"MacroPull/internal/domain/models"
)

// MinObservations is the shortest series that can be differenced and standardized.
const MinObservations = 3

// FirstDifference returns d[t] = v[t+1] - v[t]; the result is one shorter than v.
func FirstDifference(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	out := make([]float64, len(v)-1)
	for i := 1; i < len(v); i++ {
		out[i-1] = v[i] - v[i-1]
	}
	return out
}

// Standardize returns (d - mean) / std using the sample standard deviation over the
// whole of d. A constant input standardizes to zeros and reports std 0.
func Standardize(d []float64) (z []float64, mean, std float64) {
	z = make([]float64, len(d))
	if len(d) == 0 {
		return z, 0, 0
	}
	if len(d) == 1 {
		return z, d[0], 0
	}
	mean, std = stat.MeanStdDev(d, nil)
	if std == 0 || math.IsNaN(std) {
		return z, mean, 0
	}
	for i, x := range d {
		z[i] = (x - mean) / std
	}
	return z, mean, std
}

// Destandardize undoes Standardize: d = z*std + mean.
func Destandardize(z []float64, mean, std float64) []float64 {
	out := make([]float64, len(z))
	for i, x := range z {
		out[i] = x*std + mean
	}
	return out
}

// CumulativeLevels undoes FirstDifference seeded from the last observed level.
func CumulativeLevels(last float64, diffs []float64) []float64 {
	out := make([]float64, len(diffs))
	level := last
	for i, d := range diffs {
		level += d
		out[i] = level
	}
	return out
}

// PctChange returns v[t]/v[t-1] - 1 for the requested columns. Rows where any
// requested column is not finite (for example a zero base) are dropped so the
// result stays dense.
func PctChange(panel *models.Panel, ids []string) (*models.Panel, error) {
	if panel.Empty() {
		return nil, models.ErrAlignmentEmpty
	}
	if panel.Len() < 2 {
		return nil, fmt.Errorf("pct change needs 2 rows, have %d: %w", panel.Len(), models.ErrInsufficientData)
	}
	for _, id := range ids {
		if !panel.Has(id) {
			return nil, fmt.Errorf("%s: %w", id, models.ErrUnknownSeries)
		}
	}

	n := panel.Len() - 1
	changes := make(map[string][]float64, len(ids))
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for _, id := range ids {
		col := panel.Columns[id]
		out := make([]float64, n)
		for t := 1; t <= n; t++ {
			out[t-1] = col[t]/col[t-1] - 1
			if math.IsNaN(out[t-1]) || math.IsInf(out[t-1], 0) {
				keep[t-1] = false
			}
		}
		changes[id] = out
	}

	result := models.NewPanel(panel.Frequency)
	if panel.TimeIndexed() {
		for t, ok := range keep {
			if ok {
				result.Index = append(result.Index, panel.Index[t+1])
			}
		}
	}
	for _, id := range ids {
		col := make([]float64, 0, n)
		for t, ok := range keep {
			if ok {
				col = append(col, changes[id][t])
			}
		}
		result.AddColumn(id, col)
	}
	return result, nil
}
