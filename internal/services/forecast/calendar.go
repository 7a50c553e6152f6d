package forecast

import (
	"time"

	"MacroPull/internal/domain/models"
)

// ForwardIndex continues the panel's time index for steps periods, starting one
// period after its last timestamp. The frequency is the panel's tag when valid,
// else the one inferred from the index, else fallback. Panels without a time
// index get no timestamps; callers use ordinal positions instead.
func ForwardIndex(p *models.Panel, steps int, fallback models.Frequency) ([]time.Time, models.Frequency) {
	last, ok := p.LastTime()
	if !ok || steps < 1 {
		return nil, ""
	}

	freq := resolveFrequency(p, fallback)
	out := make([]time.Time, steps)
	t := last
	for i := range out {
		t = freq.Next(t)
		out[i] = t
	}
	return out, freq
}

// OrdinalIndex numbers steps positions following a panel of n rows.
func OrdinalIndex(n, steps int) []int {
	out := make([]int, steps)
	for i := range out {
		out[i] = n + i
	}
	return out
}

func resolveFrequency(p *models.Panel, fallback models.Frequency) models.Frequency {
	if models.IsValidFrequency(p.Frequency) {
		return p.Frequency
	}
	if f, ok := models.InferFrequency(p.Index); ok {
		return f
	}
	if models.IsValidFrequency(fallback) {
		return fallback
	}
	return models.DefaultFrequency()
}
