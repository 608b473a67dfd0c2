package assignment

import (
	"context"
	"time"

	"consultant-workflow/internal/models"

	"github.com/google/uuid"
)

// LedgerObserver is told about every record written by a committed transaction.
type LedgerObserver interface {
	OnLedgerChange(ctx context.Context, record models.AssignmentRecord)
}

// Ledger keeps the append-only audit trail: records are appended and later closed,
// and at most one record per application is open at a time.
type Ledger struct {
	clock func() time.Time
	newID func() string
}

func NewLedger() *Ledger {
	return &Ledger{
		clock: func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// OpenEntry describes a new assignment to append.
type OpenEntry struct {
	ApplicationID  string
	ConsultantID   string
	AssignedBy     *string
	AssignmentType models.AssignmentType
	Reason         string
}

// Appended reports what Append wrote.
type Appended struct {
	Record models.AssignmentRecord
	// Closed is the record superseded by this assignment, if one was open.
	Closed *models.AssignmentRecord
}

// Append closes any open record of the application as "reassigned" and appends a new
// open record. previousConsultantId comes from the most recent record, open or closed.
func (l *Ledger) Append(ctx context.Context, tx Tx, entry OpenEntry) (*Appended, error) {
	now := l.clock()

	latest, err := tx.LatestRecord(ctx, entry.ApplicationID)
	if err != nil {
		return nil, err
	}

	var previous *string
	if latest != nil {
		id := latest.ConsultantID
		previous = &id
	}

	out := &Appended{}
	open, err := tx.OpenRecord(ctx, entry.ApplicationID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		reason := models.ReasonReassigned
		if err := tx.CloseRecord(ctx, open.ID, now, entry.AssignedBy, reason); err != nil {
			return nil, err
		}
		closed := *open
		closed.UnassignedAt = &now
		closed.UnassignedBy = entry.AssignedBy
		closed.UnassignmentReason = &reason
		out.Closed = &closed
	}

	out.Record = models.AssignmentRecord{
		ID:                   l.newID(),
		ApplicationID:        entry.ApplicationID,
		ConsultantID:         entry.ConsultantID,
		AssignedBy:           entry.AssignedBy,
		AssignmentType:       entry.AssignmentType,
		Reason:               entry.Reason,
		PreviousConsultantID: previous,
		AssignedAt:           now,
	}
	if err := tx.InsertRecord(ctx, &out.Record); err != nil {
		return nil, err
	}
	return out, nil
}

// Close ends the application's open record. It returns nil when nothing is open.
func (l *Ledger) Close(ctx context.Context, tx Tx, applicationID string, unassignedBy *string, reason string) (*models.AssignmentRecord, error) {
	open, err := tx.OpenRecord(ctx, applicationID)
	if err != nil || open == nil {
		return nil, err
	}

	now := l.clock()
	if err := tx.CloseRecord(ctx, open.ID, now, unassignedBy, reason); err != nil {
		return nil, err
	}

	closed := *open
	closed.UnassignedAt = &now
	closed.UnassignedBy = unassignedBy
	closed.UnassignmentReason = &reason
	return &closed, nil
}
