// ABOUTME: Tests for WorkoutSession and ExerciseLog models.
// ABOUTME: Validates constructors, builders and sequence invariants.
package models

import (
	"math"
	"testing"
	"time"
)

func TestNewWorkoutSession(t *testing.T) {
	s := NewWorkoutSession("push-day")

	if s.ID == "" {
		t.Error("expected ID to be set")
	}
	if s.RoutineID != "push-day" {
		t.Errorf("RoutineID = %s, want push-day", s.RoutineID)
	}
	if s.Synced {
		t.Error("new sessions must start unsynced")
	}
	if !s.SessionDate.Equal(DateOf(s.StartTime)) {
		t.Errorf("SessionDate = %v, want date of %v", s.SessionDate, s.StartTime)
	}
}

func TestWorkoutSessionValidate(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session *WorkoutSession
		wantErr bool
	}{
		{"valid", NewWorkoutSession("r1").WithStartTime(start).WithRating(4), false},
		{"missing routine", NewWorkoutSession("").WithStartTime(start), true},
		{"rating too high", NewWorkoutSession("r1").WithRating(6), true},
		{"rating too low", NewWorkoutSession("r1").WithRating(0), true},
		{"end before start", NewWorkoutSession("r1").WithStartTime(start).WithEndTime(start.Add(-time.Minute)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWorkoutSessionDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s := NewWorkoutSession("r1").WithStartTime(start)
	if s.Duration() != 0 {
		t.Error("open session should have zero duration")
	}
	s.WithEndTime(start.Add(45 * time.Minute))
	if s.Duration() != 45*time.Minute {
		t.Errorf("Duration = %v, want 45m", s.Duration())
	}
}

func TestExerciseLogAddSet(t *testing.T) {
	l := NewExerciseLog("s1", "bench", 1).AddSet(10, 60).AddSet(8, 65)

	if l.SetsCompleted != 2 {
		t.Errorf("SetsCompleted = %d, want 2", l.SetsCompleted)
	}
	if len(l.RepsPerformed) != len(l.WeightUsedKg) {
		t.Error("reps and weights should have equal length")
	}
	if got := l.TotalVolumeKg(); got != 10*60+8*65 {
		t.Errorf("TotalVolumeKg = %f", got)
	}
}

func TestExerciseLogValidate(t *testing.T) {
	tooBig := math.MaxInt32
	tooBig++

	tests := []struct {
		name    string
		log     *ExerciseLog
		wantErr bool
	}{
		{"valid", NewExerciseLog("s1", "squat", 0).WithSets([]int{5, 5}, []float64{100, 100}), false},
		{"largest reps", NewExerciseLog("s1", "squat", 0).WithSets([]int{math.MaxInt32}, []float64{0}), false},
		{"reps too large", NewExerciseLog("s1", "squat", 0).WithSets([]int{tooBig}, []float64{0}), true},
		{"negative reps", NewExerciseLog("s1", "squat", 0).WithSets([]int{-5}, []float64{100}), true},
		{"rest too large", NewExerciseLog("s1", "squat", 0).WithSets([]int{5}, []float64{100}).WithRest([]int{tooBig}), true},
		{"negative rest", NewExerciseLog("s1", "squat", 0).WithSets([]int{5}, []float64{100}).WithRest([]int{-1}), true},
		{"order too large", NewExerciseLog("s1", "squat", tooBig), true},
		{"empty sequences", NewExerciseLog("s1", "squat", 0).MarkSkipped(), false},
		{"mismatched lengths", NewExerciseLog("s1", "squat", 0).WithSets([]int{5, 5}, []float64{100}), true},
		{"rest mismatch", NewExerciseLog("s1", "squat", 0).WithSets([]int{5}, []float64{100}).WithRest([]int{90, 90}), true},
		{"missing session", NewExerciseLog("", "squat", 0), true},
		{"negative order", NewExerciseLog("s1", "squat", -1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
