// ABOUTME: WorkoutSession model for logged training sessions.
// ABOUTME: Sessions own exercise logs and are immutable apart from the sync flag.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkoutSession represents one completed workout.
type WorkoutSession struct {
	ID          string     `json:"id" yaml:"id"`
	RoutineID   string     `json:"routine_id" yaml:"routine_id"`
	SessionDate time.Time  `json:"session_date" yaml:"session_date"`
	StartTime   time.Time  `json:"start_time" yaml:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Notes       *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Rating      *int       `json:"rating,omitempty" yaml:"rating,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`

	// Synced is meaningful only on-device.
	Synced bool `json:"synced,omitempty" yaml:"synced,omitempty"`
}

// NewWorkoutSession creates a session starting now for the given routine.
func NewWorkoutSession(routineID string) *WorkoutSession {
	now := time.Now().UTC()
	return &WorkoutSession{
		ID:          uuid.NewString(),
		RoutineID:   routineID,
		SessionDate: DateOf(now),
		StartTime:   now,
		CreatedAt:   now,
	}
}

// WithStartTime sets the start time and derives the session date from it.
func (s *WorkoutSession) WithStartTime(t time.Time) *WorkoutSession {
	s.StartTime = t
	s.SessionDate = DateOf(t)
	return s
}

// WithSessionDate overrides the session date.
func (s *WorkoutSession) WithSessionDate(d time.Time) *WorkoutSession {
	s.SessionDate = DateOf(d)
	return s
}

// WithEndTime sets the end time.
func (s *WorkoutSession) WithEndTime(t time.Time) *WorkoutSession {
	s.EndTime = &t
	return s
}

// WithNotes sets notes on the session.
func (s *WorkoutSession) WithNotes(notes string) *WorkoutSession {
	s.Notes = &notes
	return s
}

// WithRating sets the 1-5 rating.
func (s *WorkoutSession) WithRating(rating int) *WorkoutSession {
	s.Rating = &rating
	return s
}

// Validate checks the session's field constraints.
func (s *WorkoutSession) Validate() error {
	if s.RoutineID == "" {
		return errors.New("workout session: routine id is required")
	}
	if s.StartTime.IsZero() {
		return errors.New("workout session: start time is required")
	}
	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return errors.New("workout session: end time is before start time")
	}
	if s.Rating != nil && (*s.Rating < 1 || *s.Rating > 5) {
		return fmt.Errorf("workout session: rating %d out of range 1-5", *s.Rating)
	}
	return nil
}

// Duration returns the session length, or zero if it has no end time.
func (s *WorkoutSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
