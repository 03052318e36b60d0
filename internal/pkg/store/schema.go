package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Add-only schema bootstrap; safe to run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS surveys (
		id          SERIAL PRIMARY KEY,
		tenant_id   INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		public_id   TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'DRAFT',
		mode        TEXT NOT NULL DEFAULT 'SIMPLE',
		builder_doc JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		id          SERIAL PRIMARY KEY,
		survey_id   INTEGER NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
		tenant_id   INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position    INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id            SERIAL PRIMARY KEY,
		survey_id     INTEGER NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
		tenant_id     INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		section_id    INTEGER REFERENCES sections(id) ON DELETE SET NULL,
		name          TEXT NOT NULL,
		label         TEXT NOT NULL,
		question_type TEXT NOT NULL,
		position      INTEGER NOT NULL DEFAULT 0,
		options       TEXT[],
		config        JSONB,
		next_map      JSONB,
		logic         JSONB,
		UNIQUE (tenant_id, survey_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sections_survey ON sections (tenant_id, survey_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_survey ON questions (tenant_id, survey_id, position)`,
}

// EnsureSchema applies the schema statements in order.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
