package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want storage.RemoteErrorKind
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, storage.RemoteConflict},
		{"primary key violation", &pgconn.PgError{Code: "23505", ConstraintName: "exercise_logs_pkey"}, storage.RemoteConflict},
		{"duplicate log position", &pgconn.PgError{Code: "23505", ConstraintName: "exercise_logs_session_order_key"}, storage.RemoteValidation},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, storage.RemoteValidation},
		{"check violation", &pgconn.PgError{Code: "23514"}, storage.RemoteValidation},
		{"invalid datetime", &pgconn.PgError{Code: "22007"}, storage.RemoteValidation},
		{"auth failure", &pgconn.PgError{Code: "28P01"}, storage.RemoteTransient},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, storage.RemoteTransient},
		{"network", errors.New("dial tcp: connection refused"), storage.RemoteTransient},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), storage.RemoteConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, kindOf(tt.err))
		})
	}
}

func TestClassifyWrapsRemoteError(t *testing.T) {
	require.NoError(t, classify("t", "op", nil))

	err := classify("workout_sessions", "save", &pgconn.PgError{Code: "23505"})
	require.True(t, storage.IsConflict(err))

	var re *storage.RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "workout_sessions", re.Table)
	require.Equal(t, "save", re.Op)
}

func TestQueryBuild(t *testing.T) {
	q := newQuery("u1")
	q.where("routine_id", "r1")
	stmt, args := q.build("SELECT id FROM workout_sessions", "session_date DESC", 10)

	require.Equal(t, "SELECT id FROM workout_sessions WHERE user_id = $1 AND routine_id = $2 ORDER BY session_date DESC LIMIT $3", stmt)
	require.Equal(t, []any{"u1", "r1", 10}, args)

	stmt, args = newQuery("u2").build("SELECT id FROM progress_tracking", "record_date DESC", 0)
	require.Equal(t, "SELECT id FROM progress_tracking WHERE user_id = $1 ORDER BY record_date DESC", stmt)
	require.Equal(t, []any{"u2"}, args)
}

func TestInt32Conversions(t *testing.T) {
	require.Equal(t, []int32{5, 3}, toInt32s([]int{5, 3}))
	require.Equal(t, []int32{}, toInt32s(nil))
	require.Nil(t, fromInt32s(nil))
	require.Equal(t, []int{8}, fromInt32s([]int32{8}))
	require.Equal(t, []float64{}, nonNilFloats(nil))

	r := 4
	require.Equal(t, int32(4), *toInt32Ptr(&r))
	require.Nil(t, toInt32Ptr(nil))
	require.Nil(t, fromInt32Ptr(nil))
}

func TestSaveRejectsOutOfRangeBeforeQuery(t *testing.T) {
	// A nil pool would panic if the insert were attempted.
	u := &userStore{userID: "u1"}
	ctx := context.Background()

	tooBig := math.MaxInt32
	tooBig++
	l := models.NewExerciseLog("s1", "squat", 0).WithSets([]int{tooBig}, []float64{100})
	require.True(t, storage.IsValidation(u.SaveExerciseLog(ctx, l)))

	l = models.NewExerciseLog("s1", "squat", 0).WithSets([]int{5}, []float64{100}).WithRest([]int{-1})
	require.True(t, storage.IsValidation(u.SaveExerciseLog(ctx, l)))

	s := models.NewWorkoutSession("r1").WithRating(9)
	require.True(t, storage.IsValidation(u.SaveWorkoutSession(ctx, s)))
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("FITLOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FITLOG_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestIntegrationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()
	b := s.ForUser(user)

	start := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	sess := models.NewWorkoutSession("r1").WithStartTime(start).WithRating(5)
	require.NoError(t, b.SaveWorkoutSession(ctx, sess))

	log := models.NewExerciseLog(sess.ID, "squat", 0).WithSets([]int{5, 5}, []float64{100, 102.5})
	require.NoError(t, b.SaveExerciseLog(ctx, log))
	require.True(t, storage.IsConflict(b.SaveExerciseLog(ctx, log)))
	samePosition := models.NewExerciseLog(sess.ID, "bench", 0)
	require.True(t, storage.IsValidation(b.SaveExerciseLog(ctx, samePosition)))

	point := models.NewProgressTracking(models.MetricWeight, 81.2)
	require.NoError(t, b.SaveProgressTracking(ctx, point))

	sessions, err := b.ListWorkoutSessions(ctx, storage.SessionListOptions{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.True(t, sessions[0].SessionDate.Equal(models.DateOf(start)))
	require.Equal(t, 5, *sessions[0].Rating)

	logs, err := b.ListExerciseLogs(ctx, storage.ExerciseLogListOptions{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, []int{5, 5}, logs[0].RepsPerformed)
	require.Equal(t, []float64{100, 102.5}, logs[0].WeightUsedKg)
	require.Nil(t, logs[0].RestSeconds)

	points, err := b.ListProgressTracking(ctx, storage.ProgressListOptions{MetricType: models.MetricWeight})
	require.NoError(t, err)
	require.Len(t, points, 1)

	// another user sees nothing
	other, err := s.ForUser("other-"+uuid.NewString()).ListWorkoutSessions(ctx, storage.SessionListOptions{})
	require.NoError(t, err)
	require.Empty(t, other)

	// same id again is a conflict
	require.True(t, storage.IsConflict(b.SaveWorkoutSession(ctx, sess)))
}

func TestIntegrationFetchTier(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	tier, err := s.FetchTier(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "free", tier)

	_, err = s.pool.Exec(ctx, "INSERT INTO subscriptions (user_id, plan_tier) VALUES ($1, 'pro')", user)
	require.NoError(t, err)

	tier, err = s.FetchTier(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "pro", tier)

	require.NoError(t, s.SetTier(ctx, user, models.TierPremium))
	tier, err = s.FetchTier(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "premium", tier)
}
