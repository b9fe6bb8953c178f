// ABOUTME: Tests for the migration engine against a real SQLite store and an in-memory remote.
// ABOUTME: Covers re-entrancy, partial failure, upgrade flow and partial-commit recovery.
package migrate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/remote/remotetest"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/stretchr/testify/require"
)

var pro = entitlement.Context{UserID: "u1", Tier: models.TierPro}

func setupLocal(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "fitlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProgress(t *testing.T, db *storage.DB, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range n {
		p := models.NewProgressTracking(models.MetricWeight, 80+float64(i))
		require.NoError(t, db.SaveProgressTracking(context.Background(), p))
		ids[i] = p.ID
	}
	return ids
}

func transientErr() error {
	return storage.NewRemoteError(storage.RemoteTransient, "progress_tracking", "save", errors.New("connection reset"))
}

// flakyLocal fails MarkSynced once for the listed ids.
type flakyLocal struct {
	*storage.DB
	failFlip map[string]bool
}

func (f *flakyLocal) MarkSynced(ctx context.Context, family models.Family, id string) error {
	if f.failFlip[id] {
		delete(f.failFlip, id)
		return errors.New("disk I/O error")
	}
	return f.DB.MarkSynced(ctx, family, id)
}

func TestRunNotEntitled(t *testing.T) {
	db := setupLocal(t)
	seedProgress(t, db, 2)
	remote := remotetest.New()
	e := New(db, remote, nil)

	for _, ent := range []entitlement.Context{
		entitlement.Free("u1"),
		{UserID: "", Tier: models.TierPremium},
	} {
		sum, err := e.Run(context.Background(), ent)
		require.ErrorIs(t, err, ErrNotEntitled)
		require.Zero(t, sum.Synced)
	}
	require.Zero(t, remote.Saves())

	total, err := db.TotalUnsynced(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestRunWithoutRemote(t *testing.T) {
	e := New(setupLocal(t), nil, nil)
	_, err := e.Run(context.Background(), pro)
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestUpgradeThenSync(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	remote := remotetest.New()
	resolver := entitlement.NewResolver(remote, nil)
	resolver.LoadSubscription(ctx, "u1")
	require.False(t, resolver.ShouldUseCloud())

	// 3 sessions and 5 logs already on device
	var sessionIDs []string
	for range 3 {
		s := models.NewWorkoutSession("r1")
		require.NoError(t, db.SaveWorkoutSession(ctx, s))
		sessionIDs = append(sessionIDs, s.ID)
	}
	for i := range 5 {
		l := models.NewExerciseLog(sessionIDs[i%3], "squat", i).AddSet(5, 100)
		require.NoError(t, db.SaveExerciseLog(ctx, l))
	}

	e := New(db, remote, nil)
	_, err := e.Run(ctx, resolver.Context())
	require.ErrorIs(t, err, ErrNotEntitled)

	remote.SetTier("u1", "pro")
	resolver.Refresh(ctx)

	sum, err := e.Run(ctx, resolver.Context())
	require.NoError(t, err)
	require.Equal(t, 8, sum.Synced)
	require.Equal(t, 0, sum.Failed)
	require.Empty(t, sum.Errors)

	sessions, err := db.ListUnsyncedWorkoutSessions(ctx)
	require.NoError(t, err)
	require.Empty(t, sessions)
	logs, err := db.ListUnsyncedExerciseLogs(ctx)
	require.NoError(t, err)
	require.Empty(t, logs)
	progress, err := db.ListUnsyncedProgressTracking(ctx)
	require.NoError(t, err)
	require.Empty(t, progress)

	require.Equal(t, 3, remote.Count("u1", models.FamilyWorkoutSession))
	require.Equal(t, 5, remote.Count("u1", models.FamilyExerciseLog))
}

func TestRunTwiceMigratesNothingNew(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	seedProgress(t, db, 4)
	remote := remotetest.New()
	e := New(db, remote, nil)

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, Summary{Synced: 4}, sum)

	sum, err = e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 0, sum.Synced)
	require.Equal(t, 0, sum.Failed)
	require.Equal(t, 4, remote.Saves())
}

func TestPartialFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	ids := seedProgress(t, db, 5)
	remote := remotetest.New()
	remote.FailSave(ids[2], transientErr())
	e := New(db, remote, nil)

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 4, sum.Synced)
	require.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	require.Equal(t, ids[2], sum.Errors[0].RecordID)
	require.Equal(t, models.FamilyProgressTracking, sum.Errors[0].Family)
	require.True(t, sum.Errors[0].Retryable)
	require.False(t, sum.Errors[0].FlipPending)
	require.True(t, sum.Retryable())

	unsynced, err := db.ListUnsyncedProgressTracking(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	require.Equal(t, ids[2], unsynced[0].ID)

	// connectivity restored
	remote.FailSave(ids[2], nil)
	sum, err = e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, Summary{Synced: 1}, sum)
	require.Equal(t, 5, remote.Count("u1", models.FamilyProgressTracking))
}

func TestValidationFailureIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	ids := seedProgress(t, db, 2)
	remote := remotetest.New()
	remote.FailSave(ids[0], storage.NewRemoteError(storage.RemoteValidation, "progress_tracking", "save", errors.New("value out of range")))
	e := New(db, remote, nil)

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Synced)
	require.Equal(t, 1, sum.Failed)
	require.False(t, sum.Errors[0].Retryable)
	require.False(t, sum.Retryable())

	journal, err := db.JournalStates(ctx, models.FamilyProgressTracking)
	require.NoError(t, err)
	require.Empty(t, journal)
}

func TestFailedSessionFailsItsLogs(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	s := models.NewWorkoutSession("r1")
	require.NoError(t, db.SaveWorkoutSession(ctx, s))
	l := models.NewExerciseLog(s.ID, "bench", 0).AddSet(8, 60)
	require.NoError(t, db.SaveExerciseLog(ctx, l))

	remote := remotetest.New()
	remote.FailSave(s.ID, transientErr())
	e := New(db, remote, nil)

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 0, sum.Synced)
	require.Equal(t, 2, sum.Failed)
	require.Equal(t, models.FamilyWorkoutSession, sum.Errors[0].Family)
	require.Equal(t, models.FamilyExerciseLog, sum.Errors[1].Family)

	remote.FailSave(s.ID, nil)
	sum, err = e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Synced)
}

func TestConcurrentRunIsRejected(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	seedProgress(t, db, 3)
	remote := remotetest.New()
	e := New(db, remote, nil)

	var nestedErr error
	nested := false
	remote.OnSave(func(string) {
		if nested {
			return
		}
		nested = true
		require.True(t, e.Running())
		_, nestedErr = e.Run(ctx, pro)
	})

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.ErrorIs(t, nestedErr, ErrMigrationInProgress)
	require.Equal(t, 3, sum.Synced)
	require.Equal(t, 3, remote.Saves())
	require.False(t, e.Running())
}

func TestFlipFailureIsReportedAndFinishedLater(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	ids := seedProgress(t, db, 2)
	remote := remotetest.New()
	local := &flakyLocal{DB: db, failFlip: map[string]bool{ids[1]: true}}
	e := New(local, remote, nil)

	sum, err := e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Synced)
	require.Equal(t, 1, sum.Failed)
	require.True(t, sum.Errors[0].FlipPending)
	require.True(t, sum.Errors[0].Retryable)
	require.True(t, remote.Has("u1", models.FamilyProgressTracking, ids[1]))

	journal, err := db.JournalStates(ctx, models.FamilyProgressTracking)
	require.NoError(t, err)
	require.Equal(t, storage.JournalAcknowledged, journal[ids[1]])

	// the next run flips without inserting again
	sum, err = e.Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, Summary{Synced: 1}, sum)
	require.Equal(t, 2, remote.Saves())

	unsynced, err := db.TotalUnsynced(ctx)
	require.NoError(t, err)
	require.Zero(t, unsynced)
}

func TestInterruptedInsertIsRecognised(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	p := models.NewProgressTracking(models.MetricWaist, 84)
	require.NoError(t, db.SaveProgressTracking(ctx, p))

	// a previous run inserted remotely, then died before recording the ack
	remote := remotetest.New()
	require.NoError(t, remote.ForUser("u1").SaveProgressTracking(ctx, p))
	require.NoError(t, db.SetJournalState(ctx, models.FamilyProgressTracking, p.ID, storage.JournalInserting))

	sum, err := New(db, remote, nil).Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, Summary{Synced: 1}, sum)
	require.Equal(t, 1, remote.Count("u1", models.FamilyProgressTracking))
}

func TestConflictWithoutJournalIsAFailure(t *testing.T) {
	ctx := context.Background()
	db := setupLocal(t)
	p := models.NewProgressTracking(models.MetricWaist, 84)
	require.NoError(t, db.SaveProgressTracking(ctx, p))

	remote := remotetest.New()
	require.NoError(t, remote.ForUser("u1").SaveProgressTracking(ctx, p))

	sum, err := New(db, remote, nil).Run(ctx, pro)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Failed)
	require.True(t, storage.IsConflict(sum.Errors[0].Err))
	require.False(t, sum.Errors[0].Retryable)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	db := setupLocal(t)
	seedProgress(t, db, 2)
	remote := remotetest.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(db, remote, nil).Run(ctx, pro)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, remote.Saves())
}
