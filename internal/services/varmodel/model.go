package varmodel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"MacroPull/internal/domain/service"
)

var _ service.FittedVarModel = (*Model)(nil)

// Model is a fitted VAR(p) with a constant term.
type Model struct {
	series []string
	fit    *ols
	endog  *mat.Dense
	aic    float64
	// criteria holds the selection AIC of every candidate lag that could be fitted.
	criteria map[int]float64
}

func (m *Model) LagOrder() int        { return m.fit.p }
func (m *Model) Series() []string     { return append([]string(nil), m.series...) }
func (m *Model) Endog() *mat.Dense    { return m.endog }
func (m *Model) AIC() float64         { return m.aic }
func (m *Model) Nobs() int            { return m.fit.nobs }
func (m *Model) Intercept() []float64 { return append([]float64(nil), m.fit.c...) }

// Coefficients returns A_j (1-based lag) as a K x K matrix with one row per equation.
func (m *Model) Coefficients(lag int) *mat.Dense {
	if lag < 1 || lag > m.fit.p {
		return nil
	}
	return mat.DenseCopyOf(m.fit.a[lag-1])
}

// SigmaU returns the dof-adjusted residual covariance.
func (m *Model) SigmaU() *mat.SymDense { return m.fit.sigmaU }

// Criteria returns the selection AIC per candidate lag order.
func (m *Model) Criteria() map[int]float64 {
	out := make(map[int]float64, len(m.criteria))
	for k, v := range m.criteria {
		out[k] = v
	}
	return out
}

// Forecast iterates y[t] = c + sum_j A_j y[t-j] from the last p rows of Endog.
// The result has one row per step and one column per series.
func (m *Model) Forecast(steps int) (*mat.Dense, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be > 0, got %d", steps)
	}
	p, K := m.fit.p, m.fit.k
	T, _ := m.endog.Dims()
	if T < p {
		return nil, fmt.Errorf("need %d rows of context, have %d", p, T)
	}

	// history holds p context rows followed by the forecast rows
	history := mat.NewDense(p+steps, K, nil)
	for i := 0; i < p; i++ {
		for k := 0; k < K; k++ {
			history.Set(i, k, m.endog.At(T-p+i, k))
		}
	}

	for step := 0; step < steps; step++ {
		row := p + step
		for eq := 0; eq < K; eq++ {
			val := m.fit.c[eq]
			for lag := 1; lag <= p; lag++ {
				a := m.fit.a[lag-1]
				for v := 0; v < K; v++ {
					val += a.At(eq, v) * history.At(row-lag, v)
				}
			}
			history.Set(row, eq, val)
		}
	}
	return mat.DenseCopyOf(history.Slice(p, p+steps, 0, K)), nil
}

// ImpulseResponses returns the MA coefficients Psi_0..Psi_periods with Psi_0 = I
// and Psi_h = sum_{j=1..min(h,p)} A_j Psi_{h-j}. Psi_h[i][j] is the response of
// series i at horizon h to a unit impulse in series j.
func (m *Model) ImpulseResponses(periods int) ([]*mat.Dense, error) {
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}
	p, K := m.fit.p, m.fit.k

	psi := make([]*mat.Dense, periods+1)
	identity := mat.NewDense(K, K, nil)
	for i := 0; i < K; i++ {
		identity.Set(i, i, 1)
	}
	psi[0] = identity

	for h := 1; h <= periods; h++ {
		acc := mat.NewDense(K, K, nil)
		for j := 1; j <= p && j <= h; j++ {
			var term mat.Dense
			term.Mul(m.fit.a[j-1], psi[h-j])
			acc.Add(acc, &term)
		}
		psi[h] = acc
	}
	return psi, nil
}
