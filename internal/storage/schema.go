// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines the three entity tables, their sync flags and the migration journal.
package storage

// initSchema creates or updates the database schema. Safe to run at every startup.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workout_sessions (
		id TEXT PRIMARY KEY,
		routine_id TEXT NOT NULL,
		session_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		notes TEXT,
		rating INTEGER CHECK (rating IS NULL OR rating BETWEEN 1 AND 5),
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exercise_logs (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		order_performed INTEGER NOT NULL,
		sets_completed INTEGER NOT NULL DEFAULT 0,
		reps_performed TEXT,
		weight_used_kg TEXT,
		rest_seconds TEXT,
		notes TEXT,
		skipped INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		synced INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES workout_sessions(id) ON DELETE CASCADE,
		UNIQUE (session_id, order_performed)
	);

	CREATE TABLE IF NOT EXISTS progress_tracking (
		id TEXT PRIMARY KEY,
		record_date TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sync_journal (
		family TEXT NOT NULL,
		record_id TEXT NOT NULL,
		state TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (family, record_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON workout_sessions(session_date DESC, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_routine ON workout_sessions(routine_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_synced ON workout_sessions(synced);
	CREATE INDEX IF NOT EXISTS idx_logs_created ON exercise_logs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_logs_session ON exercise_logs(session_id);
	CREATE INDEX IF NOT EXISTS idx_logs_synced ON exercise_logs(synced);
	CREATE INDEX IF NOT EXISTS idx_progress_date ON progress_tracking(record_date DESC);
	CREATE INDEX IF NOT EXISTS idx_progress_type_date ON progress_tracking(metric_type, record_date DESC);
	CREATE INDEX IF NOT EXISTS idx_progress_synced ON progress_tracking(synced);
	`

	_, err := d.db.Exec(schema)
	return err
}
