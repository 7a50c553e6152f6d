package repository

import (
	"sync"
	"time"

	"MacroPull/internal/domain/models"
)

// Snapshot is one complete load of every catalog series plus the merged panel.
type Snapshot struct {
	Raw         map[string]models.RawSeries
	Panel       *models.Panel
	Failed      []string
	RefreshedAt time.Time
}

// SeriesStore holds the current snapshot. Refresh replaces it wholesale; readers
// never observe a half-built panel.
type SeriesStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewSeriesStore(freq models.Frequency) *SeriesStore {
	return &SeriesStore{snap: Snapshot{Raw: map[string]models.RawSeries{}, Panel: models.NewPanel(freq)}}
}

// Replace swaps in a new snapshot.
func (s *SeriesStore) Replace(snap Snapshot) {
	if snap.Raw == nil {
		snap.Raw = map[string]models.RawSeries{}
	}
	if snap.Panel == nil {
		snap.Panel = models.NewPanel(models.DefaultFrequency())
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Panel returns the current merged panel. Callers must not mutate it.
func (s *SeriesStore) Panel() *models.Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Panel
}

// Raw returns the raw observations of one series.
func (s *SeriesStore) Raw(id string) (models.RawSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.snap.Raw[id]
	return r, ok
}

// Snapshot returns the current snapshot.
func (s *SeriesStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
