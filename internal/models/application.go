// internal/models/application.go
package models

import "time"

// ApplicationStatus is the reviewer-facing lifecycle of a grant application.
type ApplicationStatus string

const (
	ApplicationStatusPending                ApplicationStatus = "pending"
	ApplicationStatusSubmitted              ApplicationStatus = "submitted"
	ApplicationStatusUnderReview            ApplicationStatus = "under_review"
	ApplicationStatusAdditionalInfoRequired ApplicationStatus = "additional_info_required"
	ApplicationStatusApproved               ApplicationStatus = "approved"
	ApplicationStatusRejected               ApplicationStatus = "rejected"
	ApplicationStatusCompleted              ApplicationStatus = "completed"
	ApplicationStatusCancelled              ApplicationStatus = "cancelled"
)

// ActiveCaseloadStatuses are the statuses that count toward a consultant's live load.
// "submitted" is the pre-review state of a freshly routed application and is treated
// like "pending".
var ActiveCaseloadStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusSubmitted,
	ApplicationStatusUnderReview,
	ApplicationStatusAdditionalInfoRequired,
}

// CountsTowardLoad reports whether an application in this status occupies a consultant slot.
func (s ApplicationStatus) CountsTowardLoad() bool {
	for _, st := range ActiveCaseloadStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// AssignmentType distinguishes engine-selected from staff-selected consultants.
type AssignmentType string

const (
	AssignmentTypeAutomatic AssignmentType = "automatic"
	AssignmentTypeManual    AssignmentType = "manual"
)

// Application is owned by the intake service; the engine only mutates the consultant fields.
type Application struct {
	ID                   string            `json:"id" db:"id"`
	UserID               string            `json:"userId" db:"user_id"`
	SectorID             string            `json:"sectorId" db:"sector_id"`
	Status               ApplicationStatus `json:"status" db:"status"`
	AssignedConsultantID *string           `json:"assignedConsultantId,omitempty" db:"assigned_consultant_id"`
	AssignmentType       *AssignmentType   `json:"assignmentType,omitempty" db:"assignment_type"`
	AssignedAt           *time.Time        `json:"assignedAt,omitempty" db:"assigned_at"`
}

// HasConsultant reports whether a consultant is currently recorded on the application.
func (a *Application) HasConsultant() bool {
	return a.AssignedConsultantID != nil && *a.AssignedConsultantID != ""
}
