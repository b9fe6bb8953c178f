// ABOUTME: Backend interface shared by the local SQLite store and remote stores.
// ABOUTME: Defines explicit list options for every entity family.
package storage

import (
	"context"

	"github.com/harperreed/fitlog/internal/models"
)

// Backend is the per-family save/list contract. Records always cross this
// boundary in their native in-memory shape; any storage-specific encoding
// stays inside the implementation.
type Backend interface {
	SaveWorkoutSession(ctx context.Context, s *models.WorkoutSession) error
	ListWorkoutSessions(ctx context.Context, opts SessionListOptions) ([]*models.WorkoutSession, error)

	SaveExerciseLog(ctx context.Context, l *models.ExerciseLog) error
	ListExerciseLogs(ctx context.Context, opts ExerciseLogListOptions) ([]*models.ExerciseLog, error)

	SaveProgressTracking(ctx context.Context, p *models.ProgressTracking) error
	ListProgressTracking(ctx context.Context, opts ProgressListOptions) ([]*models.ProgressTracking, error)
}

// RemoteStore is a multi-tenant cloud store. Every data call goes through a
// user-scoped Backend.
type RemoteStore interface {
	ForUser(userID string) Backend
	Ping(ctx context.Context) error
	Close() error
}

// SessionListOptions filters workout sessions.
type SessionListOptions struct {
	// RoutineID restricts results to one routine when non-empty.
	RoutineID string
	// Limit caps the page size; zero or negative means no limit.
	Limit int
}

// ExerciseLogListOptions filters exercise logs.
type ExerciseLogListOptions struct {
	// SessionID restricts results to one session when non-empty.
	SessionID string
	Limit     int
}

// ProgressListOptions filters progress data points.
type ProgressListOptions struct {
	// MetricType restricts results to one series when non-empty.
	MetricType string
	Limit      int
}
