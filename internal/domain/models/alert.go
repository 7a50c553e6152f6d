package models

import (
	"fmt"
	"time"
)

// Alert is a threshold breach of a standardized first difference.
type Alert struct {
	ID         string    `json:"id"`
	SeriesID   string    `json:"series_id"`
	SeriesName string    `json:"series_name"`
	Threshold  float64   `json:"threshold"`
	Value      float64   `json:"value"`
	Test       bool      `json:"test,omitempty"`
	FiredAt    time.Time `json:"fired_at"`
}

// Subject returns a one-line human-readable description.
func (a Alert) Subject() string {
	if a.Test {
		return fmt.Sprintf("Test alert for %s", a.SeriesName)
	}
	return fmt.Sprintf("%s moved %.2f standard deviations (threshold %.2f)", a.SeriesName, a.Value, a.Threshold)
}
