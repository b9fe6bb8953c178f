// ABOUTME: User-scoped Backend over Charm KV records.
// ABOUTME: Emulates the remote constraints KV lacks: unique ids and the session reference.
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

type userStore struct {
	c      *Client
	userID string
}

var _ storage.Backend = (*userStore)(nil)

func (u *userStore) SaveWorkoutSession(ctx context.Context, s *models.WorkoutSession) error {
	if err := ctx.Err(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, models.FamilyWorkoutSession.Table(), "save", err)
	}
	if err := s.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, models.FamilyWorkoutSession.Table(), "save", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	rec := *s
	rec.Synced = false
	return u.put(models.FamilyWorkoutSession, rec.ID, rec)
}

func (u *userStore) ListWorkoutSessions(ctx context.Context, opts storage.SessionListOptions) ([]*models.WorkoutSession, error) {
	sessions, err := list[models.WorkoutSession](ctx, u, models.FamilyWorkoutSession)
	if err != nil {
		return nil, err
	}

	filtered := sessions[:0]
	for _, s := range sessions {
		if opts.RoutineID == "" || s.RoutineID == opts.RoutineID {
			filtered = append(filtered, s)
		}
	}

	// Sort by session date then start time, most recent first
	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].SessionDate.Equal(filtered[j].SessionDate) {
			return filtered[i].SessionDate.After(filtered[j].SessionDate)
		}
		return filtered[i].StartTime.After(filtered[j].StartTime)
	})
	return limit(filtered, opts.Limit), nil
}

func (u *userStore) SaveExerciseLog(ctx context.Context, l *models.ExerciseLog) error {
	table := models.FamilyExerciseLog.Table()
	if err := ctx.Err(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}
	if err := l.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, table, "save", err)
	}

	ok, err := u.c.exists(recordKey(models.FamilyWorkoutSession, u.userID, l.SessionID))
	if err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}
	if !ok {
		return storage.NewRemoteError(storage.RemoteValidation, table, "save",
			fmt.Errorf("session %s does not exist", l.SessionID))
	}

	// A session holds one log per position; the same id is left to insert,
	// which reports it as a conflict.
	logs, err := list[models.ExerciseLog](ctx, u, models.FamilyExerciseLog)
	if err != nil {
		return err
	}
	for _, other := range logs {
		if other.ID != l.ID && other.SessionID == l.SessionID && other.OrderPerformed == l.OrderPerformed {
			return storage.NewRemoteError(storage.RemoteValidation, table, "save",
				fmt.Errorf("session %s already has a log at position %d", l.SessionID, l.OrderPerformed))
		}
	}

	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	rec := *l
	rec.Synced = false
	return u.put(models.FamilyExerciseLog, rec.ID, rec)
}

func (u *userStore) ListExerciseLogs(ctx context.Context, opts storage.ExerciseLogListOptions) ([]*models.ExerciseLog, error) {
	logs, err := list[models.ExerciseLog](ctx, u, models.FamilyExerciseLog)
	if err != nil {
		return nil, err
	}

	filtered := logs[:0]
	for _, l := range logs {
		if opts.SessionID == "" || l.SessionID == opts.SessionID {
			filtered = append(filtered, l)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].OrderPerformed < filtered[j].OrderPerformed
	})
	return limit(filtered, opts.Limit), nil
}

func (u *userStore) SaveProgressTracking(ctx context.Context, p *models.ProgressTracking) error {
	table := models.FamilyProgressTracking.Table()
	if err := ctx.Err(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}
	if err := p.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, table, "save", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	rec := *p
	rec.Synced = false
	return u.put(models.FamilyProgressTracking, rec.ID, rec)
}

func (u *userStore) ListProgressTracking(ctx context.Context, opts storage.ProgressListOptions) ([]*models.ProgressTracking, error) {
	points, err := list[models.ProgressTracking](ctx, u, models.FamilyProgressTracking)
	if err != nil {
		return nil, err
	}

	filtered := points[:0]
	for _, p := range points {
		if opts.MetricType == "" || p.MetricType == opts.MetricType {
			filtered = append(filtered, p)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].RecordDate.Equal(filtered[j].RecordDate) {
			return filtered[i].RecordDate.After(filtered[j].RecordDate)
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return limit(filtered, opts.Limit), nil
}

func (u *userStore) put(family models.Family, id string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, family.Table(), "save", fmt.Errorf("marshal: %w", err))
	}
	return u.c.insert(family, recordKey(family, u.userID, id), data)
}

func list[T any](ctx context.Context, u *userStore, family models.Family) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.NewRemoteError(storage.RemoteTransient, family.Table(), "list", err)
	}
	allData, err := u.c.listByPrefix(userPrefix(family, u.userID))
	if err != nil {
		return nil, storage.NewRemoteError(storage.RemoteTransient, family.Table(), "list", err)
	}

	out := make([]*T, 0, len(allData))
	for _, data := range allData {
		rec, err := unmarshalJSON[T](data)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func limit[T any](items []*T, n int) []*T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
