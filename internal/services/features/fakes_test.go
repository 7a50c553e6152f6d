package features

import (
	"context"
	"sync"

	"MacroPull/internal/domain/models"
)

type memStats struct {
	mu   sync.Mutex
	data map[string]models.SeriesStats
}

func newMemStats() *memStats { return &memStats{data: map[string]models.SeriesStats{}} }

func (m *memStats) Get(_ context.Context, id string) (models.SeriesStats, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	return s, ok, nil
}

func (m *memStats) Set(_ context.Context, s models.SeriesStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.SeriesID] = s
	return nil
}

type memThresholds map[string]float64

func (m memThresholds) Get(_ context.Context, id string) (float64, bool, error) {
	v, ok := m[id]
	return v, ok, nil
}

func (m memThresholds) Set(_ context.Context, id string, v float64) error {
	m[id] = v
	return nil
}

func (m memThresholds) All(context.Context) (map[string]float64, error) { return m, nil }

type recordingDispatcher struct {
	alerts []models.Alert
	accept bool
}

func (d *recordingDispatcher) Enqueue(a models.Alert) bool {
	d.alerts = append(d.alerts, a)
	return d.accept
}
