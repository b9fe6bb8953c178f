// ABOUTME: ProgressTracking model for body measurements and other time series.
// ABOUTME: Metric type is a free-form tag; common tags carry a default unit.
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common progress metric tags.
const (
	MetricWeight  = "weight"
	MetricBodyFat = "body_fat"
	MetricWaist   = "waist"
	MetricChest   = "chest"
	MetricArm     = "arm"
	MetricThigh   = "thigh"
)

// DefaultUnits maps common metric tags to their display units.
var DefaultUnits = map[string]string{
	MetricWeight:  "kg",
	MetricBodyFat: "%",
	MetricWaist:   "cm",
	MetricChest:   "cm",
	MetricArm:     "cm",
	MetricThigh:   "cm",
}

// ProgressTracking is one data point in a metric's time series.
type ProgressTracking struct {
	ID         string    `json:"id" yaml:"id"`
	RecordDate time.Time `json:"record_date" yaml:"record_date"`
	MetricType string    `json:"metric_type" yaml:"metric_type"`
	Value      float64   `json:"value" yaml:"value"`
	Unit       string    `json:"unit" yaml:"unit"`
	Notes      *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`

	Synced bool `json:"synced,omitempty" yaml:"synced,omitempty"`
}

// NewProgressTracking creates a data point recorded today. The unit
// defaults from DefaultUnits when the tag is known.
func NewProgressTracking(metricType string, value float64) *ProgressTracking {
	now := time.Now().UTC()
	return &ProgressTracking{
		ID:         uuid.NewString(),
		RecordDate: DateOf(now),
		MetricType: metricType,
		Value:      value,
		Unit:       DefaultUnits[metricType],
		CreatedAt:  now,
	}
}

// WithRecordDate sets the record date.
func (p *ProgressTracking) WithRecordDate(d time.Time) *ProgressTracking {
	p.RecordDate = DateOf(d)
	return p
}

// WithUnit overrides the unit.
func (p *ProgressTracking) WithUnit(unit string) *ProgressTracking {
	p.Unit = unit
	return p
}

// WithNotes sets notes on the data point.
func (p *ProgressTracking) WithNotes(notes string) *ProgressTracking {
	p.Notes = &notes
	return p
}

// Validate checks required fields.
func (p *ProgressTracking) Validate() error {
	if p.MetricType == "" {
		return errors.New("progress: metric type is required")
	}
	if p.Unit == "" {
		return errors.New("progress: unit is required")
	}
	if p.RecordDate.IsZero() {
		return errors.New("progress: record date is required")
	}
	return nil
}
