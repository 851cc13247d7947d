package repository

import "context"

// One statement per entry: the pgx stdlib driver rejects multi-statement
// Exec under the extended protocol.
var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
	id            UUID PRIMARY KEY,
	status        TEXT NOT NULL DEFAULT 'pending',
	filename      TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	processed_at  TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	`CREATE TABLE IF NOT EXISTS employees (
	id            BIGSERIAL PRIMARY KEY,
	nama          TEXT NOT NULL DEFAULT '',
	nik           TEXT NOT NULL DEFAULT '',
	jenis_kelamin TEXT NOT NULL DEFAULT '',
	alamat        TEXT NOT NULL DEFAULT '',
	divisi        TEXT NOT NULL DEFAULT '',
	jabatan       TEXT NOT NULL DEFAULT '',
	job_id        UUID NOT NULL REFERENCES jobs(id),
	created_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_job_id ON employees(job_id)`,
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL DEFAULT 'pending',
	filename      TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	metadata      TEXT,
	created_at    DATETIME NOT NULL,
	processed_at  DATETIME
)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	`CREATE TABLE IF NOT EXISTS employees (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	nama          TEXT NOT NULL DEFAULT '',
	nik           TEXT NOT NULL DEFAULT '',
	jenis_kelamin TEXT NOT NULL DEFAULT '',
	alamat        TEXT NOT NULL DEFAULT '',
	divisi        TEXT NOT NULL DEFAULT '',
	jabatan       TEXT NOT NULL DEFAULT '',
	job_id        TEXT NOT NULL REFERENCES jobs(id),
	created_at    DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_job_id ON employees(job_id)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := schemaPostgres
	if s.pool == nil {
		ddl = schemaSQLite
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Error("migration failed", "error", err)
			return err
		}
	}
	s.log.Info("database schema up to date")
	return nil
}
