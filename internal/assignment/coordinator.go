package assignment

import (
	"context"
	stderrors "errors"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"
	"consultant-workflow/internal/models"
)

// Outcome is the business result of an assignment attempt.
type Outcome string

const (
	OutcomeAssigned             Outcome = "assigned"
	OutcomeAlreadyAssigned      Outcome = "already_assigned"
	OutcomeNoEligibleConsultant Outcome = "no_eligible_consultant"
)

// AssignResult is returned by AutoAssign and ManualAssign. OutcomeNoEligibleConsultant
// is a normal result, not an error.
type AssignResult struct {
	Outcome       Outcome
	ApplicationID string
	Consultant    *models.Consultant
	Record        *models.AssignmentRecord
	// Closed is the record that this assignment superseded, if one was open.
	Closed    *models.AssignmentRecord
	Selection Selection
}

// Assigned reports whether a consultant now holds the application.
func (r *AssignResult) Assigned() bool {
	return r != nil && (r.Outcome == OutcomeAssigned || r.Outcome == OutcomeAlreadyAssigned)
}

// Coordinator applies assignment mutations: the application's consultant fields and
// the ledger always commit or roll back together.
type Coordinator struct {
	store     Store
	selector  *Selector
	ledger    *Ledger
	guard     CapacityGuard
	observers []LedgerObserver
	logger    logger.Logger
}

type Option func(*Coordinator)

// WithCapacityGuard serializes select+commit per sector.
func WithCapacityGuard(g CapacityGuard) Option {
	return func(c *Coordinator) {
		if g != nil {
			c.guard = g
		}
	}
}

// WithObservers registers listeners called after each committed ledger write.
func WithObservers(obs ...LedgerObserver) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, obs...)
	}
}

// WithLedger replaces the default ledger, mainly to pin clocks and ids in tests.
func WithLedger(l *Ledger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.ledger = l
		}
	}
}

func NewCoordinator(store Store, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		selector: NewSelector(store),
		ledger:   NewLedger(),
		guard:    NoopGuard{},
		logger:   logger.ForComponent(log, "assignment-coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AutoAssign routes the application to the least loaded eligible consultant of the
// sector. An empty sector yields OutcomeNoEligibleConsultant and writes nothing. An
// application that already has an open record keeps it: the result is
// OutcomeAlreadyAssigned and nothing is written, so a redelivered submission never
// moves the application.
func (c *Coordinator) AutoAssign(ctx context.Context, applicationID, sectorID string) (*AssignResult, error) {
	if held, err := c.heldBy(ctx, applicationID); err != nil || held != nil {
		return held, err
	}

	release, err := c.guard.Acquire(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	defer release()

	sel, err := c.selector.Select(ctx, sectorID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("select_consultant", err)
	}

	result := &AssignResult{ApplicationID: applicationID, Selection: sel}
	if !sel.Found {
		result.Outcome = OutcomeNoEligibleConsultant
		metrics.AssignmentsTotal.WithLabelValues(string(models.AssignmentTypeAutomatic), string(OutcomeNoEligibleConsultant)).Inc()
		c.logger.Warn("no eligible consultant", map[string]interface{}{
			"applicationId": applicationID,
			"sectorId":      sectorID,
			"considered":    sel.Considered,
		})
		return result, nil
	}

	consultant := sel.Consultant
	appended, err := c.assign(ctx, "auto_assign", OpenEntry{
		ApplicationID:  applicationID,
		ConsultantID:   consultant.ID,
		AssignmentType: models.AssignmentTypeAutomatic,
		Reason:         models.ReasonAutoAssigned,
	})
	if err != nil {
		return nil, err
	}
	if appended == nil {
		// another delivery assigned it between the check above and the row lock
		held, err := c.heldBy(ctx, applicationID)
		if err != nil || held != nil {
			return held, err
		}
		return nil, apperrors.NewPersistenceConflictError("auto_assign", stderrors.New("assignment vanished after row lock"))
	}

	result.Outcome = OutcomeAssigned
	result.Consultant = &consultant
	result.Record = &appended.Record
	result.Closed = appended.Closed
	metrics.AssignmentsTotal.WithLabelValues(string(models.AssignmentTypeAutomatic), string(OutcomeAssigned)).Inc()

	c.logger.Info("application auto-assigned", map[string]interface{}{
		"applicationId":  applicationID,
		"sectorId":       sectorID,
		"consultantId":   consultant.ID,
		"loadPercentage": consultant.LoadPercentage(),
		"eligible":       sel.Eligible,
	})
	return result, nil
}

// ManualAssign assigns a staff-chosen consultant. The consultant must be usable (role,
// approval, account and availability); sector and capacity are the caller's call.
func (c *Coordinator) ManualAssign(ctx context.Context, applicationID, consultantID, assignedBy, reason string) (*AssignResult, error) {
	consultant, err := c.store.GetConsultant(ctx, consultantID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("get_consultant", err)
	}
	if consultant == nil {
		c.reject(applicationID, consultantID, "not_found")
		return nil, apperrors.NewConsultantNotEligibleError(consultantID, "not_found")
	}
	if why := Check(*consultant, forManualAssignment()); why != Eligible {
		c.reject(applicationID, consultantID, why.Describe(*consultant))
		return nil, apperrors.NewConsultantNotEligibleError(consultantID, why.Describe(*consultant))
	}

	if reason == "" {
		reason = "manual assignment"
	}
	by := assignedBy
	appended, err := c.assign(ctx, "manual_assign", OpenEntry{
		ApplicationID:  applicationID,
		ConsultantID:   consultant.ID,
		AssignedBy:     &by,
		AssignmentType: models.AssignmentTypeManual,
		Reason:         reason,
	})
	if err != nil {
		return nil, err
	}
	metrics.AssignmentsTotal.WithLabelValues(string(models.AssignmentTypeManual), string(OutcomeAssigned)).Inc()

	c.logger.Info("application manually assigned", map[string]interface{}{
		"applicationId":        applicationID,
		"consultantId":         consultant.ID,
		"assignedBy":           assignedBy,
		"previousConsultantId": appended.Record.PreviousConsultantID,
	})
	return &AssignResult{
		Outcome:       OutcomeAssigned,
		ApplicationID: applicationID,
		Consultant:    consultant,
		Record:        &appended.Record,
		Closed:        appended.Closed,
	}, nil
}

// Unassign closes the open ledger record and clears the application's consultant.
// Without an open record it returns NoActiveAssignment and changes nothing.
func (c *Coordinator) Unassign(ctx context.Context, applicationID, unassignedBy, reason string) (*models.AssignmentRecord, error) {
	var closed *models.AssignmentRecord
	by := unassignedBy

	err := c.store.RunInTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return apperrors.NewApplicationNotFoundError(applicationID)
		}

		closed, err = c.ledger.Close(ctx, tx, applicationID, &by, reason)
		if err != nil {
			return err
		}
		if closed == nil {
			return apperrors.NewNoActiveAssignmentError(applicationID)
		}
		return tx.UpdateApplicationConsultant(ctx, applicationID, nil, nil, nil)
	})
	if err != nil {
		return nil, c.persistenceError("unassign", err)
	}
	metrics.AssignmentsTotal.WithLabelValues(string(closed.AssignmentType), "unassigned").Inc()

	c.logger.Info("application unassigned", map[string]interface{}{
		"applicationId": applicationID,
		"consultantId":  closed.ConsultantID,
		"unassignedBy":  unassignedBy,
		"reason":        reason,
	})
	c.notify(ctx, closed)
	return closed, nil
}

// heldBy returns an OutcomeAlreadyAssigned result when the application has an open
// record, or nil when it is free.
func (c *Coordinator) heldBy(ctx context.Context, applicationID string) (*AssignResult, error) {
	records, err := c.store.ListApplicationRecords(ctx, applicationID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("list_application_records", err)
	}
	var open *models.AssignmentRecord
	for i := range records {
		if records[i].IsOpen() {
			open = &records[i]
		}
	}
	if open == nil {
		return nil, nil
	}

	consultant, err := c.store.GetConsultant(ctx, open.ConsultantID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("get_consultant", err)
	}
	if consultant == nil {
		consultant = &models.Consultant{ID: open.ConsultantID}
	}
	metrics.AssignmentsTotal.WithLabelValues(string(models.AssignmentTypeAutomatic), string(OutcomeAlreadyAssigned)).Inc()
	c.logger.Info("application already assigned, keeping consultant", map[string]interface{}{
		"applicationId": applicationID,
		"consultantId":  open.ConsultantID,
		"recordId":      open.ID,
	})
	return &AssignResult{
		Outcome:       OutcomeAlreadyAssigned,
		ApplicationID: applicationID,
		Consultant:    consultant,
		Record:        open,
	}, nil
}

// assign runs the shared transactional write of auto and manual assignment. Automatic
// entries never displace a consultant already on the locked row; assign then writes
// nothing and returns nil.
func (c *Coordinator) assign(ctx context.Context, operation string, entry OpenEntry) (*Appended, error) {
	var appended *Appended
	err := c.store.RunInTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, entry.ApplicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return apperrors.NewApplicationNotFoundError(entry.ApplicationID)
		}
		if entry.AssignmentType == models.AssignmentTypeAutomatic && app.AssignedConsultantID != nil {
			return nil
		}

		appended, err = c.ledger.Append(ctx, tx, entry)
		if err != nil {
			return err
		}
		assignmentType := entry.AssignmentType
		assignedAt := appended.Record.AssignedAt
		consultantID := entry.ConsultantID
		return tx.UpdateApplicationConsultant(ctx, entry.ApplicationID, &consultantID, &assignmentType, &assignedAt)
	})
	if err != nil {
		return nil, c.persistenceError(operation, err)
	}
	if appended == nil {
		return nil, nil
	}

	if appended.Closed != nil {
		c.notify(ctx, appended.Closed)
	}
	c.notify(ctx, &appended.Record)
	return appended, nil
}

func (c *Coordinator) persistenceError(operation string, err error) error {
	classified := apperrors.ClassifyPersistenceError(operation, err)
	if stderrors.Is(classified, apperrors.ErrPersistenceConflict) {
		metrics.PersistenceConflicts.WithLabelValues(operation).Inc()
		c.logger.Warn("assignment transaction rolled back", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
	}
	return classified
}

func (c *Coordinator) reject(applicationID, consultantID, reason string) {
	metrics.AssignmentsTotal.WithLabelValues(string(models.AssignmentTypeManual), "rejected").Inc()
	c.logger.Warn("manual assignment rejected", map[string]interface{}{
		"applicationId": applicationID,
		"consultantId":  consultantID,
		"reason":        reason,
	})
}

func (c *Coordinator) notify(ctx context.Context, record *models.AssignmentRecord) {
	for _, o := range c.observers {
		o.OnLedgerChange(ctx, *record)
	}
}
