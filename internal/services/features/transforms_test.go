package features

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func TestStandardizeRoundTrip(t *testing.T) {
	levels := []float64{10, 10.5, 9.75, 11, 12.25, 12}
	d := FirstDifference(levels)
	z, mean, std := Standardize(d)

	back := CumulativeLevels(levels[0], Destandardize(z, mean, std))
	for i := range back {
		assert.InDelta(t, levels[i+1], back[i], 1e-12)
	}
}

func TestPctChange(t *testing.T) {
	p := models.NewPanel(models.FreqDaily)
	p.Index = models.FreqDaily.Range(day(2024, 1, 1), day(2024, 1, 4))
	p.AddColumn("A", []float64{100, 110, 99, 99})
	p.AddColumn("B", []float64{1, 0, 2, 4})

	out, err := PctChange(p, []string{"A", "B"})
	require.NoError(t, err)

	// Row 2 divides by B's zero and is dropped.
	assert.Equal(t, []string{"A", "B"}, out.Order)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 4)}, out.Index)
	assert.InDelta(t, 0.1, out.Columns["A"][0], 1e-12)
	assert.InDelta(t, 0, out.Columns["A"][1], 1e-12)
	assert.InDelta(t, -1, out.Columns["B"][0], 1e-12)
	assert.InDelta(t, 1, out.Columns["B"][1], 1e-12)
}

func TestPctChange_Errors(t *testing.T) {
	p := models.NewPanel(models.FreqDaily)
	p.AddColumn("A", []float64{1})

	_, err := PctChange(p, []string{"A"})
	assert.True(t, errors.Is(err, models.ErrInsufficientData))

	_, err = PctChange(models.NewPanel(models.FreqDaily), []string{"A"})
	assert.True(t, errors.Is(err, models.ErrAlignmentEmpty))
}
