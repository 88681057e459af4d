package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var sentinelQuery = regexp.QuoteMeta("SELECT to_regclass('public.idx_access_requests_requester') IS NOT NULL")

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func TestEnsureMigrated_Skip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	log, logs := newObservedLogger()
	err = EnsureMigrated(context.Background(), db, log, "db.local")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("db_migration_skip").Len())
}

func TestEnsureMigrated_RunsAllSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	log, logs := newObservedLogger()
	err = EnsureMigrated(context.Background(), db, log, "db.local")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, len(steps), logs.FilterMessage("db_migration_step").Len())
	assert.Equal(t, 1, logs.FilterMessage("db_migration_success").Len())
}

func TestEnsureMigrated_StepFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(steps[1].SQL)).WillReturnError(errors.New("permission denied"))

	log, logs := newObservedLogger()
	err = EnsureMigrated(context.Background(), db, log, "db.local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step create_table_documents failed")
	assert.NoError(t, mock.ExpectationsWereMet())

	failed := logs.FilterMessage("db_migration_failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "create_table_documents", failed[0].ContextMap()["migration_step"])
}

func TestEnsureMigrated_ResumesAfterInterruptedRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	failAt := -1
	for i, s := range steps {
		if s.Name == "create_unique_index_access_requests_pending_pair" {
			failAt = i
		}
	}
	require.Greater(t, failAt, 0)

	// First start dies after the access_requests table exists.
	mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps[:failAt] {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(steps[failAt].SQL)).WillReturnError(errors.New("canceling statement due to user request"))

	// The sentinel is still absent, so the restart replays every step.
	mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	log, logs := newObservedLogger()
	require.Error(t, EnsureMigrated(context.Background(), db, log, "db.local"))
	require.NoError(t, EnsureMigrated(context.Background(), db, log, "db.local"))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("db_migration_success").Len())
}

func TestSteps_SentinelIsLastObject(t *testing.T) {
	last := steps[len(steps)-1]
	assert.Contains(t, last.SQL, "CREATE INDEX IF NOT EXISTS idx_access_requests_requester")
	assert.Equal(t, "public.idx_access_requests_requester", sentinelTable)
	for _, s := range steps {
		assert.Contains(t, s.SQL, "IF NOT EXISTS", s.Name)
	}
}

func TestEnsureMigrated_SentinelError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(sentinelQuery).WillReturnError(errors.New("connection reset"))

	log, _ := newObservedLogger()
	err = EnsureMigrated(context.Background(), db, log, "db.local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check sentinel table")
}

func TestSteps_PendingUniqueIndex(t *testing.T) {
	var found bool
	for _, s := range steps {
		if s.Name == "create_unique_index_access_requests_pending_pair" {
			found = true
			assert.Contains(t, s.SQL, "WHERE status = 'pending'")
		}
	}
	assert.True(t, found)
}
