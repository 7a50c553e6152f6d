package service

import (
	"context"

	"MacroPull/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// FittedVarModel is a fitted vector autoregression.
// Row/column order of every matrix follows Series().
type FittedVarModel interface {
	LagOrder() int
	Series() []string
	// Forecast projects steps ahead from the last LagOrder rows of Endog; rows are steps.
	Forecast(steps int) (*mat.Dense, error)
	// ImpulseResponses returns the MA coefficient matrices Psi_0..Psi_periods.
	ImpulseResponses(periods int) ([]*mat.Dense, error)
	// Endog returns the data the model was fitted on (T x K).
	Endog() *mat.Dense
	AIC() float64
}

// AlertDispatcher accepts alerts for background delivery. Enqueue must not block.
type AlertDispatcher interface {
	Enqueue(a models.Alert) bool
}

// AlertNotifier delivers one alert through an external channel.
type AlertNotifier interface {
	Name() string
	Notify(ctx context.Context, a models.Alert) error
}

// VolatilityModeler fits GARCH-family models through an external collaborator.
type VolatilityModeler interface {
	Fit(ctx context.Context, target string, dependents []string, data map[string][]float64) (models.VolatilityFit, error)
}
