package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func TestForwardIndex_BusinessDayFromFriday(t *testing.T) {
	p := models.NewPanel(models.FreqBusinessDay)
	p.Index = models.FreqBusinessDay.Range(day(2024, 2, 26), day(2024, 3, 8)) // ends Friday 8 March
	p.AddColumn("A", make([]float64, len(p.Index)))

	idx, freq := ForwardIndex(p, 10, models.FreqDaily)
	require.Len(t, idx, 10)
	assert.Equal(t, models.FreqBusinessDay, freq)
	assert.Equal(t, day(2024, 3, 11), idx[0])
	assert.Equal(t, time.Monday, idx[0].Weekday())

	prev := day(2024, 3, 8)
	for _, ts := range idx {
		assert.True(t, ts.After(prev))
		assert.Equal(t, models.FreqBusinessDay.Next(prev), ts)
		assert.NotEqual(t, time.Saturday, ts.Weekday())
		assert.NotEqual(t, time.Sunday, ts.Weekday())
		prev = ts
	}
	assert.Equal(t, day(2024, 3, 22), idx[9])
}

func TestForwardIndex_InfersUntaggedFrequency(t *testing.T) {
	p := models.NewPanel("")
	p.Index = []time.Time{day(2024, 1, 1), day(2024, 2, 1), day(2024, 3, 1)}
	p.AddColumn("A", []float64{1, 2, 3})

	idx, freq := ForwardIndex(p, 2, models.FreqBusinessDay)
	assert.Equal(t, models.FreqMonthly, freq)
	assert.Equal(t, []time.Time{day(2024, 4, 1), day(2024, 5, 1)}, idx)
}

func TestForwardIndex_FallsBackToConfiguredDefault(t *testing.T) {
	p := models.NewPanel("")
	p.Index = []time.Time{day(2024, 1, 1), day(2024, 1, 4), day(2024, 1, 12)}
	p.AddColumn("A", []float64{1, 2, 3})

	_, freq := ForwardIndex(p, 1, models.FreqWeekly)
	assert.Equal(t, models.FreqWeekly, freq)

	_, freq = ForwardIndex(p, 1, "")
	assert.Equal(t, models.FreqBusinessDay, freq)
}

func TestOrdinalIndex(t *testing.T) {
	assert.Equal(t, []int{5, 6}, OrdinalIndex(5, 2))
}
