package models

import "time"

// Observation is a single (timestamp, value) pair as delivered by a data source.
type Observation struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// RawSeries is the ordered observation history of one series at its native cadence.
type RawSeries struct {
	ID           string        `json:"id"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s RawSeries) Len() int { return len(s.Observations) }

// Empty reports whether the series carries no data (e.g. failed fetch).
func (s RawSeries) Empty() bool { return len(s.Observations) == 0 }

// SeriesInfo describes a catalog entry: identifier, display name and default threshold.
type SeriesInfo struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// SeriesStats holds the moments of a series' first difference, used to undo standardization.
type SeriesStats struct {
	SeriesID   string    `json:"series_id"`
	Mean       float64   `json:"mean"`
	Std        float64   `json:"std"`
	ComputedAt time.Time `json:"computed_at"`
}

// Panel is a dense table keyed by an ascending, unique index with one column per series.
// Rows with any missing value never appear in a panel. A panel without an Index is
// ordinal: rows are addressed by position only.
type Panel struct {
	Frequency Frequency            `json:"frequency,omitempty"`
	Index     []time.Time          `json:"index,omitempty"`
	Order     []string             `json:"order"`
	Columns   map[string][]float64 `json:"columns"`
}

// NewPanel creates an empty panel on the given frequency.
func NewPanel(freq Frequency) *Panel {
	return &Panel{Frequency: freq, Columns: map[string][]float64{}}
}

// Len returns the number of rows.
func (p *Panel) Len() int {
	if p == nil {
		return 0
	}
	if len(p.Index) > 0 {
		return len(p.Index)
	}
	for _, id := range p.Order {
		return len(p.Columns[id])
	}
	return 0
}

// Empty reports whether the panel has no rows or no columns.
func (p *Panel) Empty() bool {
	return p == nil || len(p.Order) == 0 || p.Len() == 0
}

// TimeIndexed reports whether rows are keyed by timestamps.
func (p *Panel) TimeIndexed() bool {
	return p != nil && len(p.Index) > 0 && len(p.Index) == p.Len()
}

// Has reports whether the panel carries a column for id.
func (p *Panel) Has(id string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Columns[id]
	return ok
}

// Column returns the values of id.
func (p *Panel) Column(id string) ([]float64, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.Columns[id]
	return c, ok
}

// Last returns the most recent value of id.
func (p *Panel) Last(id string) (float64, bool) {
	c, ok := p.Column(id)
	if !ok || len(c) == 0 {
		return 0, false
	}
	return c[len(c)-1], true
}

// LastTime returns the final index timestamp.
func (p *Panel) LastTime() (time.Time, bool) {
	if !p.TimeIndexed() {
		return time.Time{}, false
	}
	return p.Index[len(p.Index)-1], true
}

// AddColumn appends a column, keeping insertion order.
func (p *Panel) AddColumn(id string, values []float64) {
	if _, exists := p.Columns[id]; !exists {
		p.Order = append(p.Order, id)
	}
	p.Columns[id] = values
}

// Select returns a panel restricted to ids (in the given order) that exist in p.
func (p *Panel) Select(ids []string) *Panel {
	out := &Panel{Frequency: p.Frequency, Index: p.Index, Columns: map[string][]float64{}}
	for _, id := range ids {
		if c, ok := p.Columns[id]; ok {
			out.AddColumn(id, c)
		}
	}
	return out
}
