package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"consultant-workflow/internal/common/database"
	"consultant-workflow/internal/models"
)

// activeStatusList is the SQL literal for the statuses counted as live caseload.
var activeStatusList = func() string {
	quoted := make([]string, len(models.ActiveCaseloadStatuses))
	for i, s := range models.ActiveCaseloadStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return strings.Join(quoted, ", ")
}()

// currentActiveCount is computed on every read; there is no stored counter.
var consultantColumns = `
	u.id, u.name, u.email, u.role, u.is_approved, u.is_active, u.sector_id,
	u.active_status, u.rating_score, u.max_concurrent_capacity,
	(SELECT COUNT(*) FROM applications a
	  WHERE a.assigned_consultant_id = u.id
	    AND a.status IN (` + activeStatusList + `)) AS current_active_count`

const recordColumns = `
	id, application_id, consultant_id, assigned_by, assignment_type, reason,
	previous_consultant_id, assigned_at, unassigned_at, unassigned_by, unassignment_reason`

// PostgresStore implements Store over the users, applications and
// assignment_records tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListSectorConsultants(ctx context.Context, sectorID string) ([]models.Consultant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+consultantColumns+`
		FROM users u
		WHERE u.role = $1 AND u.sector_id = $2
		ORDER BY u.id`, models.RoleConsultant, sectorID)
	if err != nil {
		return nil, fmt.Errorf("list sector consultants: %w", err)
	}
	defer rows.Close()

	var out []models.Consultant
	for rows.Next() {
		c, err := scanConsultant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetConsultant(ctx context.Context, consultantID string) (*models.Consultant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+consultantColumns+`
		FROM users u
		WHERE u.id = $1`, consultantID)
	c, err := scanConsultant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *PostgresStore) ListConsultantRecords(ctx context.Context, consultantID string) ([]models.AssignmentRecord, error) {
	return s.listRecords(ctx, "consultant_id", consultantID)
}

func (s *PostgresStore) ListApplicationRecords(ctx context.Context, applicationID string) ([]models.AssignmentRecord, error) {
	return s.listRecords(ctx, "application_id", applicationID)
}

func (s *PostgresStore) listRecords(ctx context.Context, column, id string) ([]models.AssignmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+recordColumns+`
		FROM assignment_records
		WHERE `+column+` = $1
		ORDER BY assigned_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list assignment records: %w", err)
	}
	defer rows.Close()

	var out []models.AssignmentRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx *sql.Tx
}

// LockApplication takes the row lock that serializes writers on one application.
func (t *postgresTx) LockApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	var (
		app            models.Application
		consultantID   sql.NullString
		assignmentType sql.NullString
		assignedAt     sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, sector_id, status, assigned_consultant_id, assignment_type, assigned_at
		FROM applications
		WHERE id = $1
		FOR UPDATE`, applicationID).Scan(
		&app.ID, &app.UserID, &app.SectorID, &app.Status, &consultantID, &assignmentType, &assignedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock application: %w", err)
	}

	app.AssignedConsultantID = stringPtr(consultantID)
	if assignmentType.Valid {
		at := models.AssignmentType(assignmentType.String)
		app.AssignmentType = &at
	}
	app.AssignedAt = timePtr(assignedAt)
	return &app, nil
}

func (t *postgresTx) UpdateApplicationConsultant(ctx context.Context, applicationID string, consultantID *string, assignmentType *models.AssignmentType, assignedAt *time.Time) error {
	var at *string
	if assignmentType != nil {
		s := string(*assignmentType)
		at = &s
	}
	_, err := t.tx.ExecContext(ctx, `
		UPDATE applications
		SET assigned_consultant_id = $2, assignment_type = $3, assigned_at = $4, updated_at = NOW()
		WHERE id = $1`,
		applicationID, nullString(consultantID), nullString(at), nullTime(assignedAt),
	)
	if err != nil {
		return fmt.Errorf("update application consultant: %w", err)
	}
	return nil
}

func (t *postgresTx) OpenRecord(ctx context.Context, applicationID string) (*models.AssignmentRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT`+recordColumns+`
		FROM assignment_records
		WHERE application_id = $1 AND unassigned_at IS NULL
		FOR UPDATE`, applicationID)
	return scanOptionalRecord(row)
}

func (t *postgresTx) LatestRecord(ctx context.Context, applicationID string) (*models.AssignmentRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT`+recordColumns+`
		FROM assignment_records
		WHERE application_id = $1
		ORDER BY assigned_at DESC, id DESC
		LIMIT 1`, applicationID)
	return scanOptionalRecord(row)
}

func (t *postgresTx) InsertRecord(ctx context.Context, r *models.AssignmentRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO assignment_records (
			id, application_id, consultant_id, assigned_by, assignment_type, reason,
			previous_consultant_id, assigned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ApplicationID, r.ConsultantID, nullString(r.AssignedBy), string(r.AssignmentType),
		r.Reason, nullString(r.PreviousConsultantID), r.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment record: %w", err)
	}
	return nil
}

// CloseRecord only touches a still-open record; zero rows means another writer closed it.
func (t *postgresTx) CloseRecord(ctx context.Context, recordID string, unassignedAt time.Time, unassignedBy *string, reason string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE assignment_records
		SET unassigned_at = $2, unassigned_by = $3, unassignment_reason = $4
		WHERE id = $1 AND unassigned_at IS NULL`,
		recordID, unassignedAt, nullString(unassignedBy), reason,
	)
	if err != nil {
		return fmt.Errorf("close assignment record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close assignment record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("close assignment record %s: %w", recordID, sql.ErrTxDone)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultant(s scanner) (*models.Consultant, error) {
	var c models.Consultant
	err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.Role, &c.IsApproved, &c.IsActive, &c.SectorID,
		&c.ActiveStatus, &c.RatingScore, &c.MaxConcurrentCapacity, &c.CurrentActiveCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanRecord(s scanner) (*models.AssignmentRecord, error) {
	var (
		r                                          models.AssignmentRecord
		assignedBy, previous, unassignedBy, reason sql.NullString
		unassignedAt                               sql.NullTime
	)
	err := s.Scan(
		&r.ID, &r.ApplicationID, &r.ConsultantID, &assignedBy, &r.AssignmentType, &r.Reason,
		&previous, &r.AssignedAt, &unassignedAt, &unassignedBy, &reason,
	)
	if err != nil {
		return nil, err
	}
	r.AssignedBy = stringPtr(assignedBy)
	r.PreviousConsultantID = stringPtr(previous)
	r.UnassignedAt = timePtr(unassignedAt)
	r.UnassignedBy = stringPtr(unassignedBy)
	r.UnassignmentReason = stringPtr(reason)
	return &r, nil
}

func scanOptionalRecord(row *sql.Row) (*models.AssignmentRecord, error) {
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read assignment record: %w", err)
	}
	return r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
