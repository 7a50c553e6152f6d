package varmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"MacroPull/internal/domain/models"
)

// Fit estimates a VAR over the ids columns of panel with the lag order in
// [1, maxLags] that minimizes AIC. Every candidate is scored on the same sample:
// the first maxLags rows are held back as presample. The chosen order is then
// refit on the full sample. It also returns the last observed row keyed by id.
//
// Any failure wraps models.ErrFitFailure and no model is returned.
func Fit(panel *models.Panel, ids []string, maxLags int) (*Model, map[string]float64, error) {
	if len(ids) == 0 {
		return nil, nil, fmt.Errorf("no series selected: %w", models.ErrFitFailure)
	}
	if maxLags < 1 {
		return nil, nil, fmt.Errorf("max lags must be >= 1, got %d: %w", maxLags, models.ErrFitFailure)
	}
	for _, id := range ids {
		if !panel.Has(id) {
			return nil, nil, fmt.Errorf("%s: %w", id, models.ErrUnknownSeries)
		}
	}

	y, err := endogMatrix(panel, ids)
	if err != nil {
		return nil, nil, err
	}
	T, _ := y.Dims()
	if T < maxLags+1 {
		return nil, nil, fmt.Errorf("%d observations, need at least %d: %w", T, maxLags+1, models.ErrFitFailure)
	}

	best, criteria, err := SelectLagOrder(y, maxLags)
	if err != nil {
		return nil, nil, err
	}

	fit, err := estimate(y, best, best)
	if err != nil {
		return nil, nil, fmt.Errorf("refit p=%d: %v: %w", best, err, models.ErrFitFailure)
	}

	last := make(map[string]float64, len(ids))
	for k, id := range ids {
		last[id] = y.At(T-1, k)
	}

	return &Model{
		series:   append([]string(nil), ids...),
		fit:      fit,
		endog:    y,
		aic:      fit.aic(),
		criteria: criteria,
	}, last, nil
}

// SelectLagOrder scores p = 1..maxLags on a common sample and returns the order
// with the lowest AIC. Ties keep the smaller order. Candidates that cannot be
// estimated are left out of the returned criteria.
func SelectLagOrder(y *mat.Dense, maxLags int) (int, map[int]float64, error) {
	criteria := make(map[int]float64, maxLags)
	best, bestAIC := 0, math.Inf(1)
	var lastErr error
	for p := 1; p <= maxLags; p++ {
		fit, err := estimate(y, p, maxLags)
		if err != nil {
			lastErr = err
			continue
		}
		aic := fit.aic()
		if math.IsInf(aic, 0) || math.IsNaN(aic) {
			lastErr = fmt.Errorf("p=%d: residual covariance not positive definite", p)
			continue
		}
		criteria[p] = aic
		if aic < bestAIC {
			best, bestAIC = p, aic
		}
	}
	if best == 0 {
		if lastErr == nil {
			lastErr = errors.New("no candidate lag order")
		}
		return 0, nil, fmt.Errorf("lag selection up to %d: %v: %w", maxLags, lastErr, models.ErrFitFailure)
	}
	return best, criteria, nil
}

func endogMatrix(panel *models.Panel, ids []string) (*mat.Dense, error) {
	T := panel.Len()
	if T == 0 {
		return nil, fmt.Errorf("empty panel: %w", models.ErrFitFailure)
	}
	y := mat.NewDense(T, len(ids), nil)
	for k, id := range ids {
		col := panel.Columns[id]
		if len(col) != T {
			return nil, fmt.Errorf("%s has %d rows, panel has %d: %w", id, len(col), T, models.ErrFitFailure)
		}
		for t, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%s row %d is not finite: %w", id, t, models.ErrFitFailure)
			}
			y.Set(t, k, v)
		}
	}
	return y, nil
}
