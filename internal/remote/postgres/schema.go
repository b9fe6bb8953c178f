// ABOUTME: Remote relational schema for the multi-tenant cloud store.
// ABOUTME: Every table carries a user_id owner column; sequences are native arrays.
package postgres

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	user_id    TEXT PRIMARY KEY,
	plan_tier  TEXT NOT NULL DEFAULT 'free',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workout_sessions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	routine_id   TEXT NOT NULL,
	session_date DATE NOT NULL,
	start_time   TIMESTAMPTZ NOT NULL,
	end_time     TIMESTAMPTZ,
	notes        TEXT,
	rating       INT CHECK (rating BETWEEN 1 AND 5),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exercise_logs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	session_id      TEXT NOT NULL REFERENCES workout_sessions(id) ON DELETE CASCADE,
	exercise_id     TEXT NOT NULL,
	order_performed INT NOT NULL CHECK (order_performed >= 0),
	sets_completed  INT NOT NULL DEFAULT 0 CHECK (sets_completed >= 0),
	reps_performed  INTEGER[] NOT NULL DEFAULT '{}',
	weight_used_kg  DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
	rest_seconds    INTEGER[],
	notes           TEXT,
	skipped         BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (cardinality(reps_performed) = cardinality(weight_used_kg)),
	CHECK (rest_seconds IS NULL OR cardinality(rest_seconds) = cardinality(reps_performed))
);

CREATE TABLE IF NOT EXISTS progress_tracking (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	record_date DATE NOT NULL,
	metric_type TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	unit        TEXT NOT NULL,
	notes       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workout_sessions_user_date ON workout_sessions(user_id, session_date DESC);
CREATE INDEX IF NOT EXISTS idx_workout_sessions_routine ON workout_sessions(user_id, routine_id);
CREATE UNIQUE INDEX IF NOT EXISTS exercise_logs_session_order_key ON exercise_logs(session_id, order_performed);
CREATE INDEX IF NOT EXISTS idx_exercise_logs_user_session ON exercise_logs(user_id, session_id);
CREATE INDEX IF NOT EXISTS idx_progress_user_metric_date ON progress_tracking(user_id, metric_type, record_date DESC);
`
