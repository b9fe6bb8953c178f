// ABOUTME: ExerciseLog model for per-exercise set data within a session.
// ABOUTME: Per-set reps, weights and rest times are parallel sequences.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ExerciseLog records one exercise performed within a WorkoutSession.
type ExerciseLog struct {
	ID             string    `json:"id" yaml:"id"`
	SessionID      string    `json:"session_id" yaml:"session_id"`
	ExerciseID     string    `json:"exercise_id" yaml:"exercise_id"`
	OrderPerformed int       `json:"order_performed" yaml:"order_performed"`
	SetsCompleted  int       `json:"sets_completed" yaml:"sets_completed"`
	RepsPerformed  []int     `json:"reps_performed,omitempty" yaml:"reps_performed,omitempty"`
	WeightUsedKg   []float64 `json:"weight_used_kg,omitempty" yaml:"weight_used_kg,omitempty"`
	RestSeconds    []int     `json:"rest_seconds,omitempty" yaml:"rest_seconds,omitempty"`
	Notes          *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Skipped        bool      `json:"skipped" yaml:"skipped"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`

	Synced bool `json:"synced,omitempty" yaml:"synced,omitempty"`
}

// NewExerciseLog creates a log entry for an exercise at the given position.
func NewExerciseLog(sessionID, exerciseID string, order int) *ExerciseLog {
	return &ExerciseLog{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		ExerciseID:     exerciseID,
		OrderPerformed: order,
		CreatedAt:      time.Now().UTC(),
	}
}

// AddSet appends one set and bumps SetsCompleted.
func (l *ExerciseLog) AddSet(reps int, weightKg float64) *ExerciseLog {
	l.RepsPerformed = append(l.RepsPerformed, reps)
	l.WeightUsedKg = append(l.WeightUsedKg, weightKg)
	l.SetsCompleted = len(l.RepsPerformed)
	return l
}

// WithSets replaces the per-set sequences.
func (l *ExerciseLog) WithSets(reps []int, weightsKg []float64) *ExerciseLog {
	l.RepsPerformed = reps
	l.WeightUsedKg = weightsKg
	l.SetsCompleted = len(reps)
	return l
}

// WithRest sets the per-set rest seconds.
func (l *ExerciseLog) WithRest(seconds []int) *ExerciseLog {
	l.RestSeconds = seconds
	return l
}

// WithNotes sets notes on the log.
func (l *ExerciseLog) WithNotes(notes string) *ExerciseLog {
	l.Notes = &notes
	return l
}

// MarkSkipped flags the exercise as skipped.
func (l *ExerciseLog) MarkSkipped() *ExerciseLog {
	l.Skipped = true
	return l
}

// Validate checks references and that the per-set sequences line up.
func (l *ExerciseLog) Validate() error {
	if l.SessionID == "" {
		return errors.New("exercise log: session id is required")
	}
	if l.ExerciseID == "" {
		return errors.New("exercise log: exercise id is required")
	}
	if !countInRange(l.OrderPerformed) {
		return fmt.Errorf("exercise log: order performed %d out of range", l.OrderPerformed)
	}
	if !countInRange(l.SetsCompleted) {
		return fmt.Errorf("exercise log: sets completed %d out of range", l.SetsCompleted)
	}
	for i, reps := range l.RepsPerformed {
		if !countInRange(reps) {
			return fmt.Errorf("exercise log: set %d reps %d out of range", i+1, reps)
		}
	}
	for i, rest := range l.RestSeconds {
		if !countInRange(rest) {
			return fmt.Errorf("exercise log: set %d rest %d out of range", i+1, rest)
		}
	}
	if len(l.RepsPerformed) != len(l.WeightUsedKg) {
		return fmt.Errorf("exercise log: %d reps but %d weights", len(l.RepsPerformed), len(l.WeightUsedKg))
	}
	if len(l.RestSeconds) > 0 && len(l.RestSeconds) != len(l.RepsPerformed) {
		return fmt.Errorf("exercise log: %d rest entries for %d sets", len(l.RestSeconds), len(l.RepsPerformed))
	}
	return nil
}

// countInRange bounds counts to what the remote stores hold in a 32-bit integer.
func countInRange(v int) bool {
	return v >= 0 && int64(v) <= math.MaxInt32
}

// TotalVolumeKg sums reps*weight across all sets.
func (l *ExerciseLog) TotalVolumeKg() float64 {
	var total float64
	for i := range l.RepsPerformed {
		if i < len(l.WeightUsedKg) {
			total += float64(l.RepsPerformed[i]) * l.WeightUsedKg[i]
		}
	}
	return total
}
