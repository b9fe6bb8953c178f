// ABOUTME: WorkoutSession persistence for the local SQLite store.
// ABOUTME: New rows start unsynced; listing is most-recent-first.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/models"
)

const sessionColumns = `id, routine_id, session_date, start_time, end_time, notes, rating, created_at, synced`

// SaveWorkoutSession inserts a session with synced=false.
func (d *DB) SaveWorkoutSession(ctx context.Context, s *models.WorkoutSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO workout_sessions (id, routine_id, session_date, start_time, end_time, notes, rating, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		s.ID,
		s.RoutineID,
		formatDate(s.SessionDate),
		formatTime(s.StartTime),
		nullTime(s.EndTime),
		s.Notes,
		s.Rating,
		formatTime(s.CreatedAt),
	)
	if err != nil {
		return opErr(models.FamilyWorkoutSession.Table(), "save", err)
	}
	s.Synced = false
	return nil
}

// ListWorkoutSessions returns sessions newest first, optionally for one routine.
func (d *DB) ListWorkoutSessions(ctx context.Context, opts SessionListOptions) ([]*models.WorkoutSession, error) {
	var (
		where []string
		args  []any
	)
	if opts.RoutineID != "" {
		where = append(where, "routine_id = ?")
		args = append(args, opts.RoutineID)
	}
	query := "SELECT " + sessionColumns + " FROM workout_sessions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY session_date DESC, start_time DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return d.querySessions(ctx, "list", query, args...)
}

// ListUnsyncedWorkoutSessions returns every session still owned by the device.
func (d *DB) ListUnsyncedWorkoutSessions(ctx context.Context) ([]*models.WorkoutSession, error) {
	return d.querySessions(ctx, "list unsynced",
		"SELECT "+sessionColumns+" FROM workout_sessions WHERE synced = 0 ORDER BY created_at ASC")
}

func (d *DB) querySessions(ctx context.Context, op, query string, args ...any) ([]*models.WorkoutSession, error) {
	table := models.FamilyWorkoutSession.Table()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, opErr(table, op, err)
	}
	defer rows.Close()

	var sessions []*models.WorkoutSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, opErr(table, op, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr(table, op, err)
	}
	return sessions, nil
}

func scanSession(rows *sql.Rows) (*models.WorkoutSession, error) {
	var (
		s                               models.WorkoutSession
		sessionDate, startTime, created string
		endTime, notes                  sql.NullString
		rating                          sql.NullInt64
		synced                          int
	)

	err := rows.Scan(&s.ID, &s.RoutineID, &sessionDate, &startTime, &endTime, &notes, &rating, &created, &synced)
	if err != nil {
		return nil, fmt.Errorf("scan workout session: %w", err)
	}

	if s.SessionDate, err = parseDate(sessionDate); err != nil {
		return nil, fmt.Errorf("parse session_date: %w", err)
	}
	if s.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if endTime.Valid {
		t, err := parseTime(endTime.String)
		if err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		s.EndTime = &t
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	if rating.Valid {
		r := int(rating.Int64)
		s.Rating = &r
	}
	s.Synced = synced != 0

	return &s, nil
}
