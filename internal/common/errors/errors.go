// Package errors provides standardized error handling for the assignment and workflow engine
// and its translation into BPMN errors for the Zeebe job workers.
package errors

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Allocation outcomes
	ErrCodeNoEligibleConsultant  ErrorCode = "NO_ELIGIBLE_CONSULTANT"
	ErrCodeNoActiveAssignment    ErrorCode = "NO_ACTIVE_ASSIGNMENT"
	ErrCodeConsultantNotEligible ErrorCode = "CONSULTANT_NOT_ELIGIBLE"
	ErrCodeApplicationNotFound   ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeCapacityLockTimeout   ErrorCode = "CAPACITY_LOCK_TIMEOUT"

	// Workflow rooms
	ErrCodeRoomNotFound      ErrorCode = "ROOM_NOT_FOUND"
	ErrCodeRoomAlreadyExists ErrorCode = "ROOM_ALREADY_EXISTS"
	ErrCodeInvalidPriority   ErrorCode = "INVALID_PRIORITY"

	// Notifications
	ErrCodeNotificationNotFound    ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeNotificationWriteFailed ErrorCode = "NOTIFICATION_WRITE_FAILED"

	// Persistence
	ErrCodePersistenceConflict      ErrorCode = "PERSISTENCE_CONFLICT"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	// Inbound events
	ErrCodeInvalidEventPayload ErrorCode = "INVALID_EVENT_PAYLOAD"

	// Workflow broker
	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"
	ErrCodeBrokerRejected    ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any other StandardError carrying the same code, so the sentinels
// below work with errors.Is.
func (e *StandardError) Is(target error) bool {
	var other *StandardError
	if !stderrors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ErrCommitFailed marks an error raised by COMMIT itself; the transaction is gone.
var ErrCommitFailed = stderrors.New("commit failed")

// Sentinels for errors.Is comparisons.
var (
	ErrNoActiveAssignment    = &StandardError{Code: ErrCodeNoActiveAssignment}
	ErrConsultantNotEligible = &StandardError{Code: ErrCodeConsultantNotEligible}
	ErrApplicationNotFound   = &StandardError{Code: ErrCodeApplicationNotFound}
	ErrRoomNotFound          = &StandardError{Code: ErrCodeRoomNotFound}
	ErrRoomAlreadyExists     = &StandardError{Code: ErrCodeRoomAlreadyExists}
	ErrInvalidPriority       = &StandardError{Code: ErrCodeInvalidPriority}
	ErrNotificationNotFound  = &StandardError{Code: ErrCodeNotificationNotFound}
	ErrPersistenceConflict   = &StandardError{Code: ErrCodePersistenceConflict}
	ErrCapacityLockTimeout   = &StandardError{Code: ErrCodeCapacityLockTimeout}
	ErrInvalidEventPayload   = &StandardError{Code: ErrCodeInvalidEventPayload}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoActiveAssignmentError is returned by unassign when no open ledger record exists.
func NewNoActiveAssignmentError(applicationID string) *StandardError {
	return newError(ErrCodeNoActiveAssignment, "Application has no active assignment",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

// NewConsultantNotEligibleError rejects a manual assignment to an unusable consultant.
func NewConsultantNotEligibleError(consultantID, reason string) *StandardError {
	return newError(ErrCodeConsultantNotEligible, "Consultant is not eligible for assignment",
		fmt.Sprintf("consultantId: %s, reason: %s", consultantID, reason), false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

// NewCapacityLockTimeoutError is returned when the sector lock could not be taken in time.
func NewCapacityLockTimeoutError(sectorID string) *StandardError {
	return newError(ErrCodeCapacityLockTimeout, "Timed out waiting for sector capacity lock",
		fmt.Sprintf("sectorId: %s", sectorID), true)
}

func NewRoomNotFoundError(ref string) *StandardError {
	return newError(ErrCodeRoomNotFound, "Workflow room not found", ref, false)
}

func NewRoomAlreadyExistsError(applicationID string) *StandardError {
	return newError(ErrCodeRoomAlreadyExists, "Workflow room already exists",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewInvalidPriorityError(priority string) *StandardError {
	return newError(ErrCodeInvalidPriority, "Unknown room priority",
		fmt.Sprintf("priority: %s", priority), false)
}

func NewNotificationNotFoundError(notificationID string) *StandardError {
	return newError(ErrCodeNotificationNotFound, "Notification not found",
		fmt.Sprintf("notificationId: %s", notificationID), false)
}

// NewNotificationWriteFailedError wraps a failed per-recipient notification insert.
func NewNotificationWriteFailedError(recipientID string, err error) *StandardError {
	e := newError(ErrCodeNotificationWriteFailed, "Notification write failed",
		fmt.Sprintf("recipientId: %s, error: %v", recipientID, err), true)
	e.cause = err
	return e
}

// NewPersistenceConflictError signals a rolled-back transaction that may be retried.
func NewPersistenceConflictError(operation string, err error) *StandardError {
	e := newError(ErrCodePersistenceConflict, "Transaction failed to commit",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
	e.cause = err
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	e := newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
	e.cause = err
	return e
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
	e.cause = err
	return e
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

func NewInvalidEventPayloadError(eventType, details string) *StandardError {
	return newError(ErrCodeInvalidEventPayload, "Event payload failed validation",
		fmt.Sprintf("event: %s, %s", eventType, details), false)
}

// NewBrokerUnavailableError covers connection-level Zeebe failures.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
	e.cause = err
	return e
}

func NewBrokerTimeoutError(operation string, err error) *StandardError {
	e := newError(ErrCodeBrokerTimeout, "Workflow broker timeout",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
	e.cause = err
	return e
}

// NewBrokerRejectedError is a command the broker refused, e.g. an unknown job key.
func NewBrokerRejectedError(operation string, err error) *StandardError {
	e := newError(ErrCodeBrokerRejected, "Workflow broker rejected command",
		fmt.Sprintf("operation: %s, error: %v", operation, err), false)
	e.cause = err
	return e
}

// ==========================
// 4. Persistence classification
// ==========================

// SQLSTATE codes that indicate the transaction lost a race and was rolled back.
var conflictSQLStates = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"23505": true, // unique_violation (open ledger record index)
	"55P03": true, // lock_not_available
}

// ClassifyPersistenceError maps a raw database error onto the taxonomy. Errors that are
// already StandardErrors pass through unchanged.
func ClassifyPersistenceError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return err
	}
	if stderrors.Is(err, sql.ErrTxDone) || stderrors.Is(err, ErrCommitFailed) {
		return NewPersistenceConflictError(operation, err)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		if conflictSQLStates[pqErr.Code] {
			return NewPersistenceConflictError(operation, err)
		}
		if pqErr.Code.Class() == "08" {
			return NewDatabaseConnectionFailedError(err)
		}
	}
	if stderrors.Is(err, sql.ErrConnDone) {
		return NewDatabaseConnectionFailedError(err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewQueryTimeoutError(operation)
	}
	return NewQueryExecutionFailedError(operation, err)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceConflict,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationWriteFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeCapacityLockTimeout,
		ErrCodeBrokerUnavailable,
		ErrCodeBrokerTimeout:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	e := newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
	e.cause = err
	return e
}

// IsRetryable reports whether err is a StandardError flagged as retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONSULTANT") || strings.Contains(codeStr, "ASSIGNMENT"):
		return "ASSIGNMENT"
	case strings.Contains(codeStr, "ROOM") || strings.Contains(codeStr, "PRIORITY"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	default:
		return "OTHER"
	}
}
