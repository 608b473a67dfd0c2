package assignment

import (
	"context"
	"time"

	"consultant-workflow/internal/models"
)

// Store is the persistence boundary of the assignment engine.
type Store interface {
	Directory

	// ListConsultantRecords returns every ledger record of a consultant, oldest first.
	ListConsultantRecords(ctx context.Context, consultantID string) ([]models.AssignmentRecord, error)
	// ListApplicationRecords returns the ledger history of an application, oldest first.
	ListApplicationRecords(ctx context.Context, applicationID string) ([]models.AssignmentRecord, error)

	// RunInTx executes fn atomically; an error from fn rolls everything back.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes that must commit together.
type Tx interface {
	// LockApplication loads the application and holds its row until commit.
	LockApplication(ctx context.Context, applicationID string) (*models.Application, error)
	UpdateApplicationConsultant(ctx context.Context, applicationID string, consultantID *string, assignmentType *models.AssignmentType, assignedAt *time.Time) error

	// OpenRecord returns the record with unassignedAt = null, or nil.
	OpenRecord(ctx context.Context, applicationID string) (*models.AssignmentRecord, error)
	// LatestRecord returns the most recently assigned record regardless of state, or nil.
	LatestRecord(ctx context.Context, applicationID string) (*models.AssignmentRecord, error)
	InsertRecord(ctx context.Context, record *models.AssignmentRecord) error
	CloseRecord(ctx context.Context, recordID string, unassignedAt time.Time, unassignedBy *string, reason string) error
}
