// ABOUTME: ProgressTracking persistence for the local SQLite store.
// ABOUTME: Each metric type is an independent time series.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/models"
)

const progressColumns = `id, record_date, metric_type, value, unit, notes, created_at, synced`

// SaveProgressTracking inserts a data point with synced=false.
func (d *DB) SaveProgressTracking(ctx context.Context, p *models.ProgressTracking) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO progress_tracking (id, record_date, metric_type, value, unit, notes, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		p.ID,
		formatDate(p.RecordDate),
		p.MetricType,
		p.Value,
		p.Unit,
		p.Notes,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return opErr(models.FamilyProgressTracking.Table(), "save", err)
	}
	p.Synced = false
	return nil
}

// ListProgressTracking returns data points newest first, optionally for one metric type.
func (d *DB) ListProgressTracking(ctx context.Context, opts ProgressListOptions) ([]*models.ProgressTracking, error) {
	var args []any
	query := "SELECT " + progressColumns + " FROM progress_tracking"
	if opts.MetricType != "" {
		query += " WHERE metric_type = ?"
		args = append(args, opts.MetricType)
	}
	query += " ORDER BY record_date DESC, created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return d.queryProgress(ctx, "list", query, args...)
}

// ListUnsyncedProgressTracking returns every data point still owned by the device.
func (d *DB) ListUnsyncedProgressTracking(ctx context.Context) ([]*models.ProgressTracking, error) {
	return d.queryProgress(ctx, "list unsynced",
		"SELECT "+progressColumns+" FROM progress_tracking WHERE synced = 0 ORDER BY created_at ASC")
}

func (d *DB) queryProgress(ctx context.Context, op, query string, args ...any) ([]*models.ProgressTracking, error) {
	table := models.FamilyProgressTracking.Table()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, opErr(table, op, err)
	}
	defer rows.Close()

	var points []*models.ProgressTracking
	for rows.Next() {
		var (
			p                   models.ProgressTracking
			recordDate, created string
			notes               sql.NullString
			synced              int
		)
		if err := rows.Scan(&p.ID, &recordDate, &p.MetricType, &p.Value, &p.Unit, &notes, &created, &synced); err != nil {
			return nil, opErr(table, op, fmt.Errorf("scan progress: %w", err))
		}
		if p.RecordDate, err = parseDate(recordDate); err != nil {
			return nil, opErr(table, op, fmt.Errorf("parse record_date: %w", err))
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, opErr(table, op, fmt.Errorf("parse created_at: %w", err))
		}
		if notes.Valid {
			p.Notes = &notes.String
		}
		p.Synced = synced != 0
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr(table, op, err)
	}
	return points, nil
}
