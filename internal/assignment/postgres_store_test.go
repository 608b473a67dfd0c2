package assignment

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var (
	consultantCols = []string{
		"id", "name", "email", "role", "is_approved", "is_active", "sector_id",
		"active_status", "rating_score", "max_concurrent_capacity", "current_active_count",
	}
	recordCols = []string{
		"id", "application_id", "consultant_id", "assigned_by", "assignment_type", "reason",
		"previous_consultant_id", "assigned_at", "unassigned_at", "unassigned_by", "unassignment_reason",
	}
	applicationCols = []string{
		"id", "user_id", "sector_id", "status", "assigned_consultant_id", "assignment_type", "assigned_at",
	}
)

func TestPostgresStore_ListSectorConsultants(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT (.+) a.status IN \('pending', 'submitted', 'under_review', 'additional_info_required'\)(.+) FROM users u WHERE u.role = \$1 AND u.sector_id = \$2`).
		WithArgs("consultant", "S").
		WillReturnRows(sqlmock.NewRows(consultantCols).
			AddRow("C1", "Ana", "ana@example.com", "consultant", true, true, "S", "active", 4.5, 3, 2).
			AddRow("C2", "Ben", "ben@example.com", "consultant", true, true, "S", "active", 4.0, 3, 1))

	consultants, err := store.ListSectorConsultants(context.Background(), "S")
	require.NoError(t, err)
	require.Len(t, consultants, 2)
	assert.Equal(t, 2, consultants[0].CurrentActiveCount)
	assert.Equal(t, models.ConsultantStatusActive, consultants[1].ActiveStatus)

	sel := SelectBest(consultants, "S")
	assert.Equal(t, "C2", sel.Consultant.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetConsultantNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db)

	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(consultantCols))

	c, err := store.GetConsultant(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListConsultantRecords(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db)
	assigned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	closed := assigned.Add(90 * time.Minute)

	mock.ExpectQuery(`FROM assignment_records WHERE consultant_id = \$1 ORDER BY assigned_at ASC`).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("r1", "a1", "C1", nil, "automatic", models.ReasonAutoAssigned, nil, assigned, closed, "staff", "done").
			AddRow("r2", "a2", "C1", "staff", "manual", "rebalance", "C9", assigned, nil, nil, nil))

	records, err := store.ListConsultantRecords(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].IsOpen())
	assert.Equal(t, 90*time.Minute, records[0].Duration())
	assert.Nil(t, records[0].AssignedBy)
	assert.True(t, records[1].IsOpen())
	require.NotNil(t, records[1].PreviousConsultantID)
	assert.Equal(t, "C9", *records[1].PreviousConsultantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AutoAssignTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db)
	coord := NewCoordinator(store, logger.NewTestLogger(t), WithLedger(testLedger()))

	mock.ExpectQuery(`FROM assignment_records WHERE application_id = \$1 ORDER BY assigned_at ASC`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(`FROM users u WHERE u.role = \$1 AND u.sector_id = \$2`).
		WithArgs("consultant", "S").
		WillReturnRows(sqlmock.NewRows(consultantCols).
			AddRow("C1", "Ana", "ana@example.com", "consultant", true, true, "S", "active", 4.5, 3, 2).
			AddRow("C2", "Ben", "ben@example.com", "consultant", true, true, "S", "active", 4.0, 3, 1))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow("app1", "U1", "S", "submitted", nil, nil, nil))
	mock.ExpectQuery(`FROM assignment_records WHERE application_id = \$1 ORDER BY assigned_at DESC`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(`FROM assignment_records WHERE application_id = \$1 AND unassigned_at IS NULL FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectExec(`INSERT INTO assignment_records`).
		WithArgs("rec-a", "app1", "C2", nil, "automatic", models.ReasonAutoAssigned, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET assigned_consultant_id = \$2`).
		WithArgs("app1", "C2", "automatic", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := coord.AutoAssign(context.Background(), "app1", "S")
	require.NoError(t, err)
	assert.Equal(t, "C2", res.Consultant.ID)
	assert.Equal(t, "rec-a", res.Record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AutoAssignKeepsOpenRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	coord := NewCoordinator(NewPostgresStore(db), logger.NewTestLogger(t))
	assigned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM assignment_records WHERE application_id = \$1 ORDER BY assigned_at ASC`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("r1", "app1", "C1", nil, "automatic", models.ReasonAutoAssigned, nil, assigned, nil, nil, nil))
	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows(consultantCols).
			AddRow("C1", "Ana", "ana@example.com", "consultant", true, true, "S", "active", 4.5, 1, 1))

	res, err := coord.AutoAssign(context.Background(), "app1", "S")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyAssigned, res.Outcome)
	assert.Equal(t, "C1", res.Consultant.ID)
	assert.Equal(t, "r1", res.Record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UnassignWithoutOpenRecordRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	coord := NewCoordinator(NewPostgresStore(db), logger.NewTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow("app1", "U1", "S", "under_review", nil, nil, nil))
	mock.ExpectQuery(`unassigned_at IS NULL FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectRollback()

	_, err := coord.Unassign(context.Background(), "app1", "staff", "cleanup")
	assert.True(t, errors.Is(err, apperrors.ErrNoActiveAssignment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseRecordLostRace(t *testing.T) {
	db, mock := setupMockDB(t)
	coord := NewCoordinator(NewPostgresStore(db), logger.NewTestLogger(t))
	assigned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow("app1", "U1", "S", "under_review", "C1", "automatic", assigned))
	mock.ExpectQuery(`unassigned_at IS NULL FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("r1", "app1", "C1", nil, "automatic", models.ReasonAutoAssigned, nil, assigned, nil, nil, nil))
	mock.ExpectExec(`UPDATE assignment_records SET unassigned_at = \$2`).
		WithArgs("r1", sqlmock.AnyArg(), "staff", "cleanup").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := coord.Unassign(context.Background(), "app1", "staff", "cleanup")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistenceConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitFailureIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	coord := NewCoordinator(NewPostgresStore(db), logger.NewTestLogger(t))
	assigned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow("app1", "U1", "S", "under_review", "C1", "automatic", assigned))
	mock.ExpectQuery(`unassigned_at IS NULL FOR UPDATE`).
		WithArgs("app1").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("r1", "app1", "C1", nil, "automatic", models.ReasonAutoAssigned, nil, assigned, nil, nil, nil))
	mock.ExpectExec(`UPDATE assignment_records SET unassigned_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET assigned_consultant_id = \$2`).
		WithArgs("app1", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset during commit"))

	_, err := coord.Unassign(context.Background(), "app1", "staff", "cleanup")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistenceConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
