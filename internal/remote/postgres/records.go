// ABOUTME: User-scoped Backend over the remote Postgres tables.
// ABOUTME: Converts per-set sequences to and from native array columns.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userStore struct {
	pool   *pgxpool.Pool
	userID string
}

var _ storage.Backend = (*userStore)(nil)

func (u *userStore) SaveWorkoutSession(ctx context.Context, s *models.WorkoutSession) error {
	if err := s.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, models.FamilyWorkoutSession.Table(), "save", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := u.pool.Exec(ctx, `
		INSERT INTO workout_sessions (id, user_id, routine_id, session_date, start_time, end_time, notes, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, u.userID, s.RoutineID, s.SessionDate, s.StartTime, s.EndTime, s.Notes, toInt32Ptr(s.Rating), s.CreatedAt,
	)
	return classify(models.FamilyWorkoutSession.Table(), "save", err)
}

func (u *userStore) ListWorkoutSessions(ctx context.Context, opts storage.SessionListOptions) ([]*models.WorkoutSession, error) {
	q := newQuery(u.userID)
	if opts.RoutineID != "" {
		q.where("routine_id", opts.RoutineID)
	}
	stmt, args := q.build(
		"SELECT id, routine_id, session_date, start_time, end_time, notes, rating, created_at FROM workout_sessions",
		"session_date DESC, start_time DESC", opts.Limit)

	table := models.FamilyWorkoutSession.Table()
	rows, err := u.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, classify(table, "list", err)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.WorkoutSession, error) {
		var (
			s      models.WorkoutSession
			rating *int32
		)
		if err := row.Scan(&s.ID, &s.RoutineID, &s.SessionDate, &s.StartTime, &s.EndTime, &s.Notes, &rating, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Rating = fromInt32Ptr(rating)
		normalizeSession(&s)
		return &s, nil
	})
	if err != nil {
		return nil, classify(table, "list", err)
	}
	return sessions, nil
}

func (u *userStore) SaveExerciseLog(ctx context.Context, l *models.ExerciseLog) error {
	if err := l.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, models.FamilyExerciseLog.Table(), "save", err)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	var rest []int32
	if len(l.RestSeconds) > 0 {
		rest = toInt32s(l.RestSeconds)
	}
	_, err := u.pool.Exec(ctx, `
		INSERT INTO exercise_logs (id, user_id, session_id, exercise_id, order_performed, sets_completed,
			reps_performed, weight_used_kg, rest_seconds, notes, skipped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, u.userID, l.SessionID, l.ExerciseID, l.OrderPerformed, l.SetsCompleted,
		toInt32s(l.RepsPerformed), nonNilFloats(l.WeightUsedKg), rest, l.Notes, l.Skipped, l.CreatedAt,
	)
	return classify(models.FamilyExerciseLog.Table(), "save", err)
}

func (u *userStore) ListExerciseLogs(ctx context.Context, opts storage.ExerciseLogListOptions) ([]*models.ExerciseLog, error) {
	q := newQuery(u.userID)
	if opts.SessionID != "" {
		q.where("session_id", opts.SessionID)
	}
	stmt, args := q.build(`SELECT id, session_id, exercise_id, order_performed, sets_completed,
		reps_performed, weight_used_kg, rest_seconds, notes, skipped, created_at FROM exercise_logs`,
		"created_at DESC, order_performed ASC", opts.Limit)

	table := models.FamilyExerciseLog.Table()
	rows, err := u.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, classify(table, "list", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ExerciseLog, error) {
		var (
			l          models.ExerciseLog
			reps, rest []int32
		)
		err := row.Scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.OrderPerformed, &l.SetsCompleted,
			&reps, &l.WeightUsedKg, &rest, &l.Notes, &l.Skipped, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		l.RepsPerformed = fromInt32s(reps)
		l.RestSeconds = fromInt32s(rest)
		if len(l.WeightUsedKg) == 0 {
			l.WeightUsedKg = nil
		}
		l.CreatedAt = l.CreatedAt.UTC()
		return &l, nil
	})
	if err != nil {
		return nil, classify(table, "list", err)
	}
	return logs, nil
}

func (u *userStore) SaveProgressTracking(ctx context.Context, p *models.ProgressTracking) error {
	if err := p.Validate(); err != nil {
		return storage.NewRemoteError(storage.RemoteValidation, models.FamilyProgressTracking.Table(), "save", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := u.pool.Exec(ctx, `
		INSERT INTO progress_tracking (id, user_id, record_date, metric_type, value, unit, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, u.userID, p.RecordDate, p.MetricType, p.Value, p.Unit, p.Notes, p.CreatedAt,
	)
	return classify(models.FamilyProgressTracking.Table(), "save", err)
}

func (u *userStore) ListProgressTracking(ctx context.Context, opts storage.ProgressListOptions) ([]*models.ProgressTracking, error) {
	q := newQuery(u.userID)
	if opts.MetricType != "" {
		q.where("metric_type", opts.MetricType)
	}
	stmt, args := q.build(
		"SELECT id, record_date, metric_type, value, unit, notes, created_at FROM progress_tracking",
		"record_date DESC, created_at DESC", opts.Limit)

	table := models.FamilyProgressTracking.Table()
	rows, err := u.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, classify(table, "list", err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ProgressTracking, error) {
		var p models.ProgressTracking
		if err := row.Scan(&p.ID, &p.RecordDate, &p.MetricType, &p.Value, &p.Unit, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.RecordDate = models.DateOf(p.RecordDate)
		p.CreatedAt = p.CreatedAt.UTC()
		return &p, nil
	})
	if err != nil {
		return nil, classify(table, "list", err)
	}
	return points, nil
}

// query builds a user-scoped SELECT with positional parameters.
type query struct {
	conds []string
	args  []any
}

func newQuery(userID string) *query {
	q := &query{}
	q.where("user_id", userID)
	return q
}

func (q *query) where(column string, value any) {
	q.args = append(q.args, value)
	q.conds = append(q.conds, fmt.Sprintf("%s = $%d", column, len(q.args)))
}

func (q *query) build(selectFrom, orderBy string, limit int) (string, []any) {
	stmt := selectFrom + " WHERE " + strings.Join(q.conds, " AND ") + " ORDER BY " + orderBy
	args := q.args
	if limit > 0 {
		args = append(args, limit)
		stmt += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return stmt, args
}

func normalizeSession(s *models.WorkoutSession) {
	s.SessionDate = models.DateOf(s.SessionDate)
	s.StartTime = s.StartTime.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	if s.EndTime != nil {
		end := s.EndTime.UTC()
		s.EndTime = &end
	}
}

// toInt32s narrows without checks; records are validated before they get here.
func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32s(in []int32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func nonNilFloats(in []float64) []float64 {
	if in == nil {
		return []float64{}
	}
	return in
}

func toInt32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32Ptr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
