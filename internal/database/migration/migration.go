package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable names the object created by the final step; its presence means every step ran.
const sentinelTable = "public.idx_access_requests_requester"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id     BIGINT      NOT NULL,
  name         TEXT        NOT NULL,
  storage_path TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_created ON documents (owner_id, created_at DESC);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_access_requests",
		SQL: `CREATE TABLE IF NOT EXISTS access_requests (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id  UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  requester_id BIGINT      NOT NULL,
  status       TEXT        NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
  -- 500 matches config.MaxReasonLen
  reason       TEXT        NOT NULL CHECK (length(btrim(reason)) > 0 AND char_length(reason) <= 500),
  response     TEXT        NOT NULL DEFAULT '' CHECK (char_length(response) <= 500),
  resolved_by  BIGINT,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK ((status = 'pending') = (resolved_by IS NULL))
);`,
	},
	{
		// At most one pending request per (document, requester); concurrent submits lose with 23505.
		Name: "create_unique_index_access_requests_pending_pair",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_access_requests_pending_pair
  ON access_requests (document_id, requester_id) WHERE status = 'pending';`,
	},
	{
		Name: "create_index_access_requests_latest",
		SQL: `CREATE INDEX IF NOT EXISTS idx_access_requests_latest
  ON access_requests (document_id, requester_id, created_at DESC, id DESC);`,
	},
	{
		Name: "create_index_access_requests_requester",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_access_requests_requester ON access_requests (requester_id, created_at DESC);`,
	},
}

// EnsureMigrated checks if the access_requests table exists and runs migrations if it doesn't.
// Every step is idempotent, so a run interrupted halfway is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := fmt.Sprintf("SELECT to_regclass('%s') IS NOT NULL", sentinelTable)
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"), zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
