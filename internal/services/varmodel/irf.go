package varmodel

import (
	"fmt"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/service"
)

// ComputeIRF returns the non-orthogonalized impulse responses of m for horizons
// 0..periods with every element multiplied by shock.
//
// The shock is a flat rescaling of unit-impulse responses. It is not propagated
// through the residual covariance, so a shock of 2 reads as twice the unit response.
func ComputeIRF(m service.FittedVarModel, periods int, shock float64) (models.IRFResult, error) {
	psi, err := m.ImpulseResponses(periods)
	if err != nil {
		return models.IRFResult{}, fmt.Errorf("impulse responses: %w", err)
	}

	responses := make([][][]float64, len(psi))
	for h, ph := range psi {
		r, c := ph.Dims()
		responses[h] = make([][]float64, r)
		for i := 0; i < r; i++ {
			row := make([]float64, c)
			for j := 0; j < c; j++ {
				row[j] = ph.At(i, j) * shock
			}
			responses[h][i] = row
		}
	}

	return models.IRFResult{
		Series:    m.Series(),
		Periods:   periods,
		Shock:     shock,
		LagOrder:  m.LagOrder(),
		Responses: responses,
	}, nil
}
