// ABOUTME: Storage router: the single entry point for reads and writes.
// ABOUTME: Dispatches each call to exactly one backend based on the caller's entitlement snapshot.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/migrate"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

var (
	// ErrRemoteUnavailable is returned to cloud-tier callers when no remote store is configured.
	ErrRemoteUnavailable = migrate.ErrRemoteUnavailable
	// ErrClearRequiresFreeTier guards ClearLocalData.
	ErrClearRequiresFreeTier = errors.New("local data can only be cleared on the free tier")
)

// Router dispatches to the local store or the remote store.
type Router struct {
	local    *storage.DB
	remote   storage.RemoteStore
	migrator *migrate.Engine
	conn     Connectivity
	logger   *log.Logger
	newID    func() string
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithConnectivity replaces the default remote ping check.
func WithConnectivity(c Connectivity) Option {
	return func(r *Router) { r.conn = c }
}

// WithIDGenerator replaces uuid.NewString for new record ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Router) { r.newID = fn }
}

// New creates a router. remote may be nil when no cloud store is configured;
// cloud-tier calls then fail with ErrRemoteUnavailable.
func New(local *storage.DB, remote storage.RemoteStore, opts ...Option) *Router {
	r := &Router{
		local:  local,
		remote: remote,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDiscard(r.logger)
	if r.conn == nil {
		r.conn = NewPingCheck(remote, 0)
	}
	r.migrator = migrate.New(local, remote, r.logger)
	return r
}

// backend picks the store for ent. The local store is never a fallback for
// a cloud-tier caller.
func (r *Router) backend(ent entitlement.Context) (storage.Backend, string, error) {
	if !ent.ShouldUseCloud() {
		return r.local, "local", nil
	}
	if r.remote == nil {
		return nil, "remote", ErrRemoteUnavailable
	}
	return r.remote.ForUser(ent.UserID), "remote", nil
}

// SaveWorkoutSession assigns a fresh id to s, validates it and writes it to
// exactly one store.
func (r *Router) SaveWorkoutSession(ctx context.Context, ent entitlement.Context, s *models.WorkoutSession) (string, error) {
	s.ID = r.newID()
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("save workout session: %w", err)
	}
	b, target, err := r.backend(ent)
	if err != nil {
		return "", fmt.Errorf("save workout session: %w", err)
	}
	r.logger.Debug("dispatch save", "family", models.FamilyWorkoutSession, "target", target, "user", ent.UserID, "tier", ent.Tier)

	if err := b.SaveWorkoutSession(ctx, s); err != nil {
		return "", fmt.Errorf("save workout session: %w", err)
	}
	return s.ID, nil
}

// ListWorkoutSessions reads sessions from the store ent is entitled to.
func (r *Router) ListWorkoutSessions(ctx context.Context, ent entitlement.Context, opts storage.SessionListOptions) ([]*models.WorkoutSession, error) {
	b, target, err := r.backend(ent)
	if err != nil {
		return nil, fmt.Errorf("list workout sessions: %w", err)
	}
	r.logger.Debug("dispatch list", "family", models.FamilyWorkoutSession, "target", target)

	sessions, err := b.ListWorkoutSessions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list workout sessions: %w", err)
	}
	return sessions, nil
}

// SaveExerciseLog assigns a fresh id to l, validates it and writes it to
// exactly one store.
func (r *Router) SaveExerciseLog(ctx context.Context, ent entitlement.Context, l *models.ExerciseLog) (string, error) {
	l.ID = r.newID()
	if err := l.Validate(); err != nil {
		return "", fmt.Errorf("save exercise log: %w", err)
	}
	b, target, err := r.backend(ent)
	if err != nil {
		return "", fmt.Errorf("save exercise log: %w", err)
	}
	r.logger.Debug("dispatch save", "family", models.FamilyExerciseLog, "target", target, "user", ent.UserID, "tier", ent.Tier)

	if err := b.SaveExerciseLog(ctx, l); err != nil {
		return "", fmt.Errorf("save exercise log: %w", err)
	}
	return l.ID, nil
}

// ListExerciseLogs reads exercise logs from the store ent is entitled to.
func (r *Router) ListExerciseLogs(ctx context.Context, ent entitlement.Context, opts storage.ExerciseLogListOptions) ([]*models.ExerciseLog, error) {
	b, target, err := r.backend(ent)
	if err != nil {
		return nil, fmt.Errorf("list exercise logs: %w", err)
	}
	r.logger.Debug("dispatch list", "family", models.FamilyExerciseLog, "target", target)

	logs, err := b.ListExerciseLogs(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list exercise logs: %w", err)
	}
	return logs, nil
}

// SaveProgressTracking assigns a fresh id to p, validates it and writes it to
// exactly one store.
func (r *Router) SaveProgressTracking(ctx context.Context, ent entitlement.Context, p *models.ProgressTracking) (string, error) {
	p.ID = r.newID()
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("save progress: %w", err)
	}
	b, target, err := r.backend(ent)
	if err != nil {
		return "", fmt.Errorf("save progress: %w", err)
	}
	r.logger.Debug("dispatch save", "family", models.FamilyProgressTracking, "target", target, "user", ent.UserID, "tier", ent.Tier)

	if err := b.SaveProgressTracking(ctx, p); err != nil {
		return "", fmt.Errorf("save progress: %w", err)
	}
	return p.ID, nil
}

// ListProgressTracking reads progress points from the store ent is entitled to.
func (r *Router) ListProgressTracking(ctx context.Context, ent entitlement.Context, opts storage.ProgressListOptions) ([]*models.ProgressTracking, error) {
	b, target, err := r.backend(ent)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	r.logger.Debug("dispatch list", "family", models.FamilyProgressTracking, "target", target)

	points, err := b.ListProgressTracking(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return points, nil
}

// SyncLocalDataToCloud drains unsynced local rows into the remote store.
func (r *Router) SyncLocalDataToCloud(ctx context.Context, ent entitlement.Context) (migrate.Summary, error) {
	return r.migrator.Run(ctx, ent)
}

// ClearLocalData deletes every local row. Only free-tier callers may clear,
// since paid tiers may still hold unsynced rows that exist nowhere else.
func (r *Router) ClearLocalData(ctx context.Context, ent entitlement.Context) error {
	if ent.ShouldUseCloud() {
		return ErrClearRequiresFreeTier
	}
	r.logger.Info("clearing local data", "user", ent.UserID)
	return r.local.ClearAll(ctx)
}
