package varmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errNoDegreesOfFreedom = errors.New("no residual degrees of freedom")

// ols holds one least-squares VAR(p) fit with a constant term.
type ols struct {
	p        int
	k        int
	nobs     int          // rows used as responses
	c        []float64    // intercept per equation
	a        []*mat.Dense // A_1..A_p, each K x K, row = equation
	sigmaU   *mat.SymDense
	sigmaMLE *mat.SymDense
}

// estimate regresses y[t] on [1, y[t-1], ..., y[t-p]] for t = start..T-1.
// start must be at least p; passing a larger start fits every candidate on a common sample.
func estimate(y *mat.Dense, p, start int) (*ols, error) {
	T, K := y.Dims()
	if p < 1 {
		return nil, fmt.Errorf("lag order must be >= 1, got %d", p)
	}
	if start < p {
		start = p
	}
	treg := T - start
	m := 1 + p*K
	if treg <= m {
		return nil, fmt.Errorf("p=%d needs more than %d rows, have %d: %w", p, m, treg, errNoDegreesOfFreedom)
	}

	yreg := mat.NewDense(treg, K, nil)
	x := mat.NewDense(treg, m, nil)
	for t := 0; t < treg; t++ {
		row := start + t
		for k := 0; k < K; k++ {
			yreg.Set(t, k, y.At(row, k))
		}
		x.Set(t, 0, 1)
		col := 1
		for j := 1; j <= p; j++ {
			for k := 0; k < K; k++ {
				x.Set(t, col, y.At(row-j, k))
				col++
			}
		}
	}

	// B = (X'X)^-1 X'Y, m x K
	var xtx, xtxInv, xty, b mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("singular design for p=%d: %w", p, err)
	}
	xty.Mul(x.T(), yreg)
	b.Mul(&xtxInv, &xty)

	fit := &ols{p: p, k: K, nobs: treg, c: make([]float64, K), a: make([]*mat.Dense, p)}
	for eq := 0; eq < K; eq++ {
		fit.c[eq] = b.At(0, eq)
	}
	for j := 0; j < p; j++ {
		aj := mat.NewDense(K, K, nil)
		offset := 1 + j*K
		for eq := 0; eq < K; eq++ {
			for v := 0; v < K; v++ {
				aj.Set(eq, v, b.At(offset+v, eq))
			}
		}
		fit.a[j] = aj
	}

	var yhat, u, utu mat.Dense
	yhat.Mul(x, &b)
	u.Sub(yreg, &yhat)
	utu.Mul(u.T(), &u)

	fit.sigmaMLE = symmetric(&utu, float64(treg))
	fit.sigmaU = symmetric(&utu, float64(treg-m))
	return fit, nil
}

// aic is ln det(Sigma_mle) + 2 (p K^2 + K) / nobs. Non-finite when the residual
// covariance is not positive definite.
func (f *ols) aic() float64 {
	logDet, sign := mat.LogDet(f.sigmaMLE)
	if sign <= 0 || math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return math.Inf(1)
	}
	free := float64(f.p*f.k*f.k + f.k)
	return logDet + 2*free/float64(f.nobs)
}

func symmetric(m *mat.Dense, div float64) *mat.SymDense {
	n, _ := m.Dims()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (m.At(i, j)+m.At(j, i))/(2*div))
		}
	}
	return out
}
