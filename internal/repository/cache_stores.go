package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	"MacroPull/pkg/cache"
)

const (
	statsPrefix     = "stats"
	thresholdPrefix = "threshold"
	forecastPrefix  = "forecast"
	thresholdIndex  = "threshold-index"
)

// CacheStatsStore keeps differencing moments in a cache.Service. Entries never expire.
type CacheStatsStore struct {
	c cache.Service
}

var _ domrepo.StatsStore = (*CacheStatsStore)(nil)

func NewCacheStatsStore(c cache.Service) *CacheStatsStore {
	return &CacheStatsStore{c: c}
}

func (s *CacheStatsStore) Get(ctx context.Context, seriesID string) (models.SeriesStats, bool, error) {
	var st models.SeriesStats
	err := s.c.Get(ctx, cache.GenerateKey(statsPrefix, seriesID), &st)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.SeriesStats{}, false, nil
	}
	if err != nil {
		return models.SeriesStats{}, false, fmt.Errorf("get stats %s: %w", seriesID, err)
	}
	return st, true, nil
}

func (s *CacheStatsStore) Set(ctx context.Context, st models.SeriesStats) error {
	if err := s.c.Set(ctx, cache.GenerateKey(statsPrefix, st.SeriesID), st, 0); err != nil {
		return fmt.Errorf("set stats %s: %w", st.SeriesID, err)
	}
	return nil
}

// CacheThresholdStore maps series ids to alert thresholds. The set of known ids
// is kept under a separate index key so All works on backends without scans.
type CacheThresholdStore struct {
	c  cache.Service
	mu sync.Mutex
}

var _ domrepo.ThresholdStore = (*CacheThresholdStore)(nil)

func NewCacheThresholdStore(c cache.Service) *CacheThresholdStore {
	return &CacheThresholdStore{c: c}
}

// Seed writes catalog defaults for ids that have no threshold yet.
// Thresholds of zero are treated as "no alerting" and skipped.
func (s *CacheThresholdStore) Seed(ctx context.Context, catalog []models.SeriesInfo) error {
	for _, info := range catalog {
		if info.Threshold <= 0 {
			continue
		}
		_, ok, err := s.Get(ctx, info.ID)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := s.Set(ctx, info.ID, info.Threshold); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheThresholdStore) Get(ctx context.Context, seriesID string) (float64, bool, error) {
	var thr float64
	err := s.c.Get(ctx, cache.GenerateKey(thresholdPrefix, seriesID), &thr)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get threshold %s: %w", seriesID, err)
	}
	return thr, true, nil
}

func (s *CacheThresholdStore) Set(ctx context.Context, seriesID string, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.c.Set(ctx, cache.GenerateKey(thresholdPrefix, seriesID), threshold, 0); err != nil {
		return fmt.Errorf("set threshold %s: %w", seriesID, err)
	}
	ids, err := s.index(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == seriesID {
			return nil
		}
	}
	ids = append(ids, seriesID)
	sort.Strings(ids)
	if err := s.c.Set(ctx, thresholdIndex, ids, 0); err != nil {
		return fmt.Errorf("set threshold index: %w", err)
	}
	return nil
}

func (s *CacheThresholdStore) All(ctx context.Context) (map[string]float64, error) {
	s.mu.Lock()
	ids, err := s.index(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	raw, err := cache.MGetTyped[float64](ctx, s.c, cache.GenerateKeys(thresholdPrefix, ids...)...)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[cache.TrimKey(thresholdPrefix, k)] = v
	}
	return out, nil
}

func (s *CacheThresholdStore) index(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.c.Get(ctx, thresholdIndex, &ids)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get threshold index: %w", err)
	}
	return ids, nil
}

// CacheForecastStore keeps forecast results for re-plotting until ttl elapses.
type CacheForecastStore struct {
	c   cache.Service
	ttl time.Duration
}

var _ domrepo.ForecastStore = (*CacheForecastStore)(nil)

func NewCacheForecastStore(c cache.Service, ttl time.Duration) *CacheForecastStore {
	return &CacheForecastStore{c: c, ttl: ttl}
}

func (s *CacheForecastStore) Save(ctx context.Context, r models.ForecastResult) error {
	if r.ID == "" {
		return fmt.Errorf("save forecast: empty id")
	}
	if err := s.c.Set(ctx, cache.GenerateKey(forecastPrefix, r.ID), r, s.ttl); err != nil {
		return fmt.Errorf("save forecast %s: %w", r.ID, err)
	}
	return nil
}

func (s *CacheForecastStore) Load(ctx context.Context, id string) (models.ForecastResult, error) {
	var r models.ForecastResult
	err := s.c.Get(ctx, cache.GenerateKey(forecastPrefix, id), &r)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.ForecastResult{}, fmt.Errorf("forecast %s: %w", id, models.ErrForecastNotFound)
	}
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("load forecast %s: %w", id, err)
	}
	return r, nil
}
