package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
)

// ThresholdView is one row of the threshold listing.
type ThresholdView struct {
	SeriesID  string  `json:"series_id"`
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Enabled   bool    `json:"enabled"`
}

// AlertUseCase manages thresholds and test notifications.
type AlertUseCase struct {
	thresholds drepo.ThresholdStore
	dispatcher service.AlertDispatcher
	catalog    []models.SeriesInfo
	now        func() time.Time
}

func NewAlertUseCase(thresholds drepo.ThresholdStore, dispatcher service.AlertDispatcher, catalog []models.SeriesInfo) *AlertUseCase {
	return &AlertUseCase{thresholds: thresholds, dispatcher: dispatcher, catalog: catalog, now: time.Now}
}

// Thresholds lists every catalog series with its current threshold.
func (u *AlertUseCase) Thresholds(ctx context.Context) ([]ThresholdView, error) {
	all, err := u.thresholds.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ThresholdView, 0, len(u.catalog))
	for _, info := range u.catalog {
		thr, ok := all[info.ID]
		out = append(out, ThresholdView{SeriesID: info.ID, Name: info.Name, Threshold: thr, Enabled: ok})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SeriesID < out[j].SeriesID })
	return out, nil
}

// UpdateThreshold sets the alert threshold of a catalog series.
func (u *AlertUseCase) UpdateThreshold(ctx context.Context, seriesID string, threshold float64) (ThresholdView, error) {
	info, ok := u.lookup(seriesID)
	if !ok {
		return ThresholdView{}, fmt.Errorf("%s: %w", seriesID, models.ErrUnknownSeries)
	}
	if threshold <= 0 {
		return ThresholdView{}, fmt.Errorf("threshold must be positive, got %v", threshold)
	}
	if err := u.thresholds.Set(ctx, seriesID, threshold); err != nil {
		return ThresholdView{}, err
	}
	return ThresholdView{SeriesID: seriesID, Name: info.Name, Threshold: threshold, Enabled: true}, nil
}

// SendTest enqueues a test alert for seriesID. It reports whether the alert was queued.
func (u *AlertUseCase) SendTest(ctx context.Context, seriesID string) (models.Alert, bool, error) {
	info, ok := u.lookup(seriesID)
	if !ok {
		return models.Alert{}, false, fmt.Errorf("%s: %w", seriesID, models.ErrUnknownSeries)
	}
	thr, _, err := u.thresholds.Get(ctx, seriesID)
	if err != nil {
		return models.Alert{}, false, err
	}
	a := models.Alert{
		ID:         uuid.NewString(),
		SeriesID:   info.ID,
		SeriesName: info.Name,
		Threshold:  thr,
		Test:       true,
		FiredAt:    u.now().UTC(),
	}
	return a, u.dispatcher.Enqueue(a), nil
}

func (u *AlertUseCase) lookup(id string) (models.SeriesInfo, bool) {
	for _, info := range u.catalog {
		if info.ID == id {
			return info, true
		}
	}
	return models.SeriesInfo{}, false
}
