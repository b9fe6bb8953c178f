// ABOUTME: ExerciseLog persistence for the local SQLite store.
// ABOUTME: Per-set sequences are JSON-encoded text columns decoded on read.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/models"
)

const exerciseLogColumns = `id, session_id, exercise_id, order_performed, sets_completed,
	reps_performed, weight_used_kg, rest_seconds, notes, skipped, created_at, synced`

// SaveExerciseLog inserts a log with synced=false. The owning session must
// already exist locally.
func (d *DB) SaveExerciseLog(ctx context.Context, l *models.ExerciseLog) error {
	table := models.FamilyExerciseLog.Table()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	reps, err := encodeSeq(l.RepsPerformed)
	if err != nil {
		return opErr(table, "save", err)
	}
	weights, err := encodeSeq(l.WeightUsedKg)
	if err != nil {
		return opErr(table, "save", err)
	}
	rest, err := encodeSeq(l.RestSeconds)
	if err != nil {
		return opErr(table, "save", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO exercise_logs (id, session_id, exercise_id, order_performed, sets_completed,
			reps_performed, weight_used_kg, rest_seconds, notes, skipped, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		l.ID,
		l.SessionID,
		l.ExerciseID,
		l.OrderPerformed,
		l.SetsCompleted,
		reps,
		weights,
		rest,
		l.Notes,
		boolToInt(l.Skipped),
		formatTime(l.CreatedAt),
	)
	if err != nil {
		return opErr(table, "save", err)
	}
	l.Synced = false
	return nil
}

// ListExerciseLogs returns logs newest first. Within one creation instant,
// logs come back in the order they were performed.
func (d *DB) ListExerciseLogs(ctx context.Context, opts ExerciseLogListOptions) ([]*models.ExerciseLog, error) {
	var args []any
	query := "SELECT " + exerciseLogColumns + " FROM exercise_logs"
	if opts.SessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, opts.SessionID)
	}
	query += " ORDER BY created_at DESC, order_performed ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return d.queryExerciseLogs(ctx, "list", query, args...)
}

// ListUnsyncedExerciseLogs returns every log still owned by the device.
func (d *DB) ListUnsyncedExerciseLogs(ctx context.Context) ([]*models.ExerciseLog, error) {
	return d.queryExerciseLogs(ctx, "list unsynced",
		"SELECT "+exerciseLogColumns+" FROM exercise_logs WHERE synced = 0 ORDER BY created_at ASC, order_performed ASC")
}

func (d *DB) queryExerciseLogs(ctx context.Context, op, query string, args ...any) ([]*models.ExerciseLog, error) {
	table := models.FamilyExerciseLog.Table()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, opErr(table, op, err)
	}
	defer rows.Close()

	var logs []*models.ExerciseLog
	for rows.Next() {
		l, err := scanExerciseLog(rows)
		if err != nil {
			return nil, opErr(table, op, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr(table, op, err)
	}
	return logs, nil
}

func scanExerciseLog(rows *sql.Rows) (*models.ExerciseLog, error) {
	var (
		l                   models.ExerciseLog
		reps, weights, rest sql.NullString
		notes               sql.NullString
		skipped, synced     int
		created             string
	)

	err := rows.Scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.OrderPerformed, &l.SetsCompleted,
		&reps, &weights, &rest, &notes, &skipped, &created, &synced)
	if err != nil {
		return nil, fmt.Errorf("scan exercise log: %w", err)
	}

	if l.RepsPerformed, err = decodeSeq[int](reps); err != nil {
		return nil, fmt.Errorf("reps_performed: %w", err)
	}
	if l.WeightUsedKg, err = decodeSeq[float64](weights); err != nil {
		return nil, fmt.Errorf("weight_used_kg: %w", err)
	}
	if l.RestSeconds, err = decodeSeq[int](rest); err != nil {
		return nil, fmt.Errorf("rest_seconds: %w", err)
	}
	if l.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if notes.Valid {
		l.Notes = &notes.String
	}
	l.Skipped = skipped != 0
	l.Synced = synced != 0

	return &l, nil
}
