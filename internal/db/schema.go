package db

// SchemaSQL is the complete schema for fresh plantcare installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(). If repository code references a column that
// doesn't exist here, tests fail immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//
// Dates are TEXT in YYYY-MM-DD form; instants are TEXT in RFC3339.
//
// Active tables (factor_active, contribution_active) and open rows (status
// windows, schedule items, alerts) carry partial unique indexes so concurrent
// recompute paths can never create two current rows for one key.
const SchemaSQL = `
-- Plant types (reference data: default watering interval)
CREATE TABLE IF NOT EXISTS plant_types (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	watering_interval_days INTEGER NOT NULL CHECK(watering_interval_days > 0),
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

-- Plants
CREATE TABLE IF NOT EXISTS plants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	plant_type_id TEXT,
	acquisition_date TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	FOREIGN KEY (plant_type_id) REFERENCES plant_types(id)
);

CREATE INDEX IF NOT EXISTS idx_plants_active ON plants(is_active);

-- Activity history (append-only)
CREATE TABLE IF NOT EXISTS activity_history (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	activity_kind TEXT NOT NULL,
	activity_date TEXT NOT NULL,
	quantity REAL,
	unit TEXT,
	notes TEXT,
	result TEXT,
	actor_id TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	FOREIGN KEY (plant_id) REFERENCES plants(id)
);

CREATE INDEX IF NOT EXISTS idx_activity_plant_kind ON activity_history(plant_id, activity_kind, activity_date);

-- Factor code -> category label
CREATE TABLE IF NOT EXISTS factor_lookup (
	factor_code TEXT PRIMARY KEY,
	factor_category TEXT NOT NULL,
	description TEXT
);

-- Factor code -> status weight
CREATE TABLE IF NOT EXISTS status_factor_weights (
	factor_code TEXT PRIMARY KEY,
	weight REAL NOT NULL CHECK(weight >= 0)
);

-- Factor history (every computed value)
CREATE TABLE IF NOT EXISTS factor_history (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	factor_code TEXT NOT NULL,
	factor_date TEXT,
	confidence_score REAL NOT NULL DEFAULT 0,
	source TEXT NOT NULL CHECK(source IN ('system', 'user_override')) DEFAULT 'system',
	run_id TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_factor_history_plant ON factor_history(plant_id, factor_code);
CREATE INDEX IF NOT EXISTS idx_factor_history_run ON factor_history(run_id);

-- Active factors (at most one active row per plant and factor code)
CREATE TABLE IF NOT EXISTS factor_active (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	factor_code TEXT NOT NULL,
	factor_date TEXT,
	confidence_score REAL NOT NULL DEFAULT 0,
	history_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	retired_at TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_factor_active_key ON factor_active(plant_id, factor_code) WHERE is_active = 1;

-- Contribution history
CREATE TABLE IF NOT EXISTS contribution_history (
	id TEXT PRIMARY KEY,
	plant_factor_id TEXT NOT NULL,
	plant_id TEXT NOT NULL,
	factor_code TEXT NOT NULL,
	severity INTEGER NOT NULL CHECK(severity BETWEEN 0 AND 3),
	days_overdue INTEGER,
	run_id TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_contribution_history_plant ON contribution_history(plant_id, factor_code);

-- Active contributions (at most one active row per plant and factor code)
CREATE TABLE IF NOT EXISTS contribution_active (
	id TEXT PRIMARY KEY,
	plant_factor_id TEXT NOT NULL,
	plant_id TEXT NOT NULL,
	factor_code TEXT NOT NULL,
	severity INTEGER NOT NULL CHECK(severity BETWEEN 0 AND 3),
	days_overdue INTEGER,
	history_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	retired_at TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_contribution_active_key ON contribution_active(plant_id, factor_code) WHERE is_active = 1;

-- Status validity windows
CREATE TABLE IF NOT EXISTS status_history (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	status_code TEXT NOT NULL CHECK(status_code IN ('healthy', 'attention', 'warning', 'urgent')),
	calculated_severity INTEGER NOT NULL CHECK(calculated_severity BETWEEN 0 AND 3),
	effective_severity INTEGER NOT NULL CHECK(effective_severity BETWEEN 0 AND 3),
	confidence_score REAL NOT NULL DEFAULT 0,
	override_reason TEXT,
	valid_from TEXT NOT NULL,
	valid_to TEXT,
	is_current INTEGER NOT NULL DEFAULT 1,
	run_id TEXT NOT NULL,
	calculated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_status_current ON status_history(plant_id) WHERE is_current = 1;
CREATE INDEX IF NOT EXISTS idx_status_plant ON status_history(plant_id, valid_from);

-- Schedule items (open while end_date IS NULL)
CREATE TABLE IF NOT EXISTS schedule (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	plant_factor_id TEXT NOT NULL,
	factor_code TEXT NOT NULL,
	schedule_date TEXT,
	schedule_label TEXT,
	schedule_severity INTEGER NOT NULL CHECK(schedule_severity BETWEEN 0 AND 3),
	run_id TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	end_date TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_open ON schedule(plant_id, factor_code) WHERE end_date IS NULL;
CREATE INDEX IF NOT EXISTS idx_schedule_date ON schedule(schedule_date);

-- Alerts (at most one non-resolved alert per plant and type)
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	plant_id TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	alert_category TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('LOW', 'MEDIUM', 'HIGH')),
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	target_date TEXT,
	due_date TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	is_snoozed INTEGER NOT NULL DEFAULT 0,
	snooze_days INTEGER,
	snooze_until TEXT,
	is_dismissed INTEGER NOT NULL DEFAULT 0,
	dismissed_at TEXT,
	dismiss_type TEXT,
	suppress_until TEXT,
	resolved_at TEXT,
	resolve_reason TEXT,
	run_id TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open ON alerts(plant_id, alert_type) WHERE is_active = 1;
CREATE INDEX IF NOT EXISTS idx_alerts_plant ON alerts(plant_id);

-- Pipeline run journal
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	trigger_kind TEXT NOT NULL CHECK(trigger_kind IN ('daily', 'manual', 'activity', 'user_action')),
	plant_id TEXT,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	stats_started INTEGER NOT NULL DEFAULT 0,
	stats_completed INTEGER NOT NULL DEFAULT 0,
	stats_errors INTEGER NOT NULL DEFAULT 0,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started ON pipeline_runs(started_at);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
