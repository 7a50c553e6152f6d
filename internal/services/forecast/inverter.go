package forecast

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	"MacroPull/internal/services/features"
	applogger "MacroPull/pkg/logger"
)

// Inverter maps standardized-difference forecasts back to levels.
type Inverter struct {
	stats       repository.StatsStore
	defaultFreq models.Frequency
	logger      *applogger.Logger
	now         func() time.Time
}

func NewInverter(stats repository.StatsStore, defaultFreq models.Frequency, logger *applogger.Logger) *Inverter {
	if logger == nil {
		logger = applogger.NewNop()
	}
	if !models.IsValidFrequency(defaultFreq) {
		defaultFreq = models.DefaultFrequency()
	}
	return &Inverter{stats: stats, defaultFreq: defaultFreq, logger: logger, now: time.Now}
}

// InvertInput carries a raw forecast and the context needed to undo its transforms.
type InvertInput struct {
	// Forecast is steps x len(Series) in standardized-difference space.
	Forecast *mat.Dense
	Series   []string
	Target   string
	// Levels is the untransformed panel the model inputs were derived from.
	Levels   *models.Panel
	LagOrder int
}

// Invert undoes the z-score with each series' stored moments and the first
// difference by cumulative summation from the last observed level. Series with
// no stored moments pass through in z space and mark the result degraded.
func (inv *Inverter) Invert(ctx context.Context, in InvertInput) (models.ForecastResult, error) {
	if in.Forecast == nil {
		return models.ForecastResult{}, fmt.Errorf("no forecast to invert")
	}
	steps, cols := in.Forecast.Dims()
	if cols != len(in.Series) {
		return models.ForecastResult{}, fmt.Errorf("forecast has %d columns for %d series", cols, len(in.Series))
	}
	if in.Levels.Empty() {
		return models.ForecastResult{}, models.ErrAlignmentEmpty
	}

	result := models.ForecastResult{
		Target:    in.Target,
		Series:    append([]string(nil), in.Series...),
		Values:    make(map[string][]float64, cols),
		LagOrder:  in.LagOrder,
		CreatedAt: inv.now().UTC(),
	}

	for k, id := range in.Series {
		seed, ok := in.Levels.Last(id)
		if !ok {
			return models.ForecastResult{}, fmt.Errorf("no level for %s: %w", id, models.ErrUnknownSeries)
		}

		z := mat.Col(nil, k, in.Forecast)
		diffs := z
		stats, found, err := inv.stats.Get(ctx, id)
		switch {
		case err != nil:
			inv.logger.Warn("stats lookup failed", applogger.String("series", id), applogger.Error(err))
			result.Degraded = true
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", id, err))
		case !found:
			inv.logger.Warn("inverting without stats", applogger.String("series", id))
			result.Degraded = true
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v, values left in z space", id, models.ErrMissingStats))
		default:
			diffs = features.Destandardize(z, stats.Mean, stats.Std)
		}

		result.Values[id] = features.CumulativeLevels(seed, diffs)
	}

	if index, freq := ForwardIndex(in.Levels, steps, inv.defaultFreq); index != nil {
		result.Index = index
		result.Frequency = freq
	} else {
		result.Ordinal = OrdinalIndex(in.Levels.Len(), steps)
	}
	return result, nil
}
