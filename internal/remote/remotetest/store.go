// ABOUTME: In-memory RemoteStore for tests, with failure injection.
// ABOUTME: Also serves as an entitlement tier source.
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

// ErrOffline is the cause attached to every call while the store is offline.
var ErrOffline = errors.New("remote unreachable")

type userData struct {
	sessions map[string]*models.WorkoutSession
	logs     map[string]*models.ExerciseLog
	progress map[string]*models.ProgressTracking
}

// Store is a multi-tenant in-memory remote.
type Store struct {
	mu         sync.Mutex
	users      map[string]*userData
	tiers      map[string]string
	tierErr    error
	offline    bool
	failures   map[string]error
	saves      int
	beforeSave func(id string)
}

var _ storage.RemoteStore = (*Store)(nil)

// New returns an empty, online store.
func New() *Store {
	return &Store{
		users:    make(map[string]*userData),
		tiers:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// SetTier sets the plan tier string returned by FetchTier for userID.
func (s *Store) SetTier(userID, tier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[userID] = tier
}

// SetTierError makes FetchTier fail with err until cleared with nil.
func (s *Store) SetTierError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tierErr = err
}

// SetOffline makes every call fail with a transient error.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// FailSave makes saves of the record with the given id return err.
// A nil err clears the injected failure.
func (s *Store) FailSave(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, id)
		return
	}
	s.failures[id] = err
}

// OnSave registers a hook called with the record id before each save is applied.
func (s *Store) OnSave(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeSave = fn
}

// Saves returns the number of accepted inserts.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Count returns how many rows of family userID owns.
func (s *Store) Count(userID string, family models.Family) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0
	}
	switch family {
	case models.FamilyWorkoutSession:
		return len(u.sessions)
	case models.FamilyExerciseLog:
		return len(u.logs)
	case models.FamilyProgressTracking:
		return len(u.progress)
	}
	return 0
}

// Has reports whether userID owns a row with id in family.
func (s *Store) Has(userID string, family models.Family, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false
	}
	switch family {
	case models.FamilyWorkoutSession:
		_, ok = u.sessions[id]
	case models.FamilyExerciseLog:
		_, ok = u.logs[id]
	case models.FamilyProgressTracking:
		_, ok = u.progress[id]
	default:
		ok = false
	}
	return ok
}

// FetchTier implements the entitlement source.
func (s *Store) FetchTier(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return "", storage.NewRemoteError(storage.RemoteTransient, "subscriptions", "fetch tier", ErrOffline)
	}
	if s.tierErr != nil {
		return "", s.tierErr
	}
	if tier, ok := s.tiers[userID]; ok {
		return tier, nil
	}
	return string(models.TierFree), nil
}

// Ping fails while offline.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return storage.NewRemoteError(storage.RemoteTransient, "connection", "ping", ErrOffline)
	}
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ForUser returns the user-scoped Backend.
func (s *Store) ForUser(userID string) storage.Backend {
	return &userStore{s: s, userID: userID}
}

// user returns the data for userID, creating it. Callers hold s.mu.
func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{
			sessions: make(map[string]*models.WorkoutSession),
			logs:     make(map[string]*models.ExerciseLog),
			progress: make(map[string]*models.ProgressTracking),
		}
		s.users[userID] = u
	}
	return u
}

// admit runs the shared pre-write checks. Callers hold s.mu.
func (s *Store) admit(family models.Family, id string, exists bool) error {
	table := family.Table()
	if s.offline {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", ErrOffline)
	}
	if err, ok := s.failures[id]; ok {
		return err
	}
	if exists {
		return storage.NewRemoteError(storage.RemoteConflict, table, "save", fmt.Errorf("duplicate id %s", id))
	}
	return nil
}

func (s *Store) readable(family models.Family) error {
	if s.offline {
		return storage.NewRemoteError(storage.RemoteTransient, family.Table(), "list", ErrOffline)
	}
	return nil
}

type userStore struct {
	s      *Store
	userID string
}

func (u *userStore) hook(id string) {
	u.s.mu.Lock()
	fn := u.s.beforeSave
	u.s.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (u *userStore) SaveWorkoutSession(ctx context.Context, rec *models.WorkoutSession) error {
	u.hook(rec.ID)
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	data := u.s.user(u.userID)
	_, exists := data.sessions[rec.ID]
	if err := u.s.admit(models.FamilyWorkoutSession, rec.ID, exists); err != nil {
		return err
	}
	cp := *rec
	cp.Synced = false
	data.sessions[rec.ID] = &cp
	u.s.saves++
	return nil
}

func (u *userStore) ListWorkoutSessions(ctx context.Context, opts storage.SessionListOptions) ([]*models.WorkoutSession, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.readable(models.FamilyWorkoutSession); err != nil {
		return nil, err
	}

	var out []*models.WorkoutSession
	for _, rec := range u.s.user(u.userID).sessions {
		if opts.RoutineID != "" && rec.RoutineID != opts.RoutineID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.After(out[j].SessionDate)
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return limit(out, opts.Limit), nil
}

func (u *userStore) SaveExerciseLog(ctx context.Context, rec *models.ExerciseLog) error {
	u.hook(rec.ID)
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	data := u.s.user(u.userID)
	_, exists := data.logs[rec.ID]
	if err := u.s.admit(models.FamilyExerciseLog, rec.ID, exists); err != nil {
		return err
	}
	if _, ok := data.sessions[rec.SessionID]; !ok {
		return storage.NewRemoteError(storage.RemoteValidation, models.FamilyExerciseLog.Table(), "save",
			fmt.Errorf("session %s does not exist", rec.SessionID))
	}
	cp := *rec
	cp.Synced = false
	cp.RepsPerformed = append([]int(nil), rec.RepsPerformed...)
	cp.WeightUsedKg = append([]float64(nil), rec.WeightUsedKg...)
	cp.RestSeconds = append([]int(nil), rec.RestSeconds...)
	data.logs[rec.ID] = &cp
	u.s.saves++
	return nil
}

func (u *userStore) ListExerciseLogs(ctx context.Context, opts storage.ExerciseLogListOptions) ([]*models.ExerciseLog, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.readable(models.FamilyExerciseLog); err != nil {
		return nil, err
	}

	var out []*models.ExerciseLog
	for _, rec := range u.s.user(u.userID).logs {
		if opts.SessionID != "" && rec.SessionID != opts.SessionID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderPerformed < out[j].OrderPerformed
	})
	return limit(out, opts.Limit), nil
}

func (u *userStore) SaveProgressTracking(ctx context.Context, rec *models.ProgressTracking) error {
	u.hook(rec.ID)
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	data := u.s.user(u.userID)
	_, exists := data.progress[rec.ID]
	if err := u.s.admit(models.FamilyProgressTracking, rec.ID, exists); err != nil {
		return err
	}
	cp := *rec
	cp.Synced = false
	data.progress[rec.ID] = &cp
	u.s.saves++
	return nil
}

func (u *userStore) ListProgressTracking(ctx context.Context, opts storage.ProgressListOptions) ([]*models.ProgressTracking, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.readable(models.FamilyProgressTracking); err != nil {
		return nil, err
	}

	var out []*models.ProgressTracking
	for _, rec := range u.s.user(u.userID).progress {
		if opts.MetricType != "" && rec.MetricType != opts.MetricType {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordDate.Equal(out[j].RecordDate) {
			return out[i].RecordDate.After(out[j].RecordDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limit(out, opts.Limit), nil
}

func limit[T any](items []*T, n int) []*T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
