package models

import "time"

// Ledger reasons written by the engine itself.
const (
	ReasonAutoAssigned = "auto_assigned: lowest load in sector"
	ReasonReassigned   = "reassigned"
)

// AssignmentRecord is one assignment/unassignment lifecycle of a consultant on an
// application. Records are appended and closed, never deleted.
type AssignmentRecord struct {
	ID                   string         `json:"id" db:"id"`
	ApplicationID        string         `json:"applicationId" db:"application_id"`
	ConsultantID         string         `json:"consultantId" db:"consultant_id"`
	AssignedBy           *string        `json:"assignedBy,omitempty" db:"assigned_by"`
	AssignmentType       AssignmentType `json:"assignmentType" db:"assignment_type"`
	Reason               string         `json:"reason" db:"reason"`
	PreviousConsultantID *string        `json:"previousConsultantId,omitempty" db:"previous_consultant_id"`
	AssignedAt           time.Time      `json:"assignedAt" db:"assigned_at"`
	UnassignedAt         *time.Time     `json:"unassignedAt,omitempty" db:"unassigned_at"`
	UnassignedBy         *string        `json:"unassignedBy,omitempty" db:"unassigned_by"`
	UnassignmentReason   *string        `json:"unassignmentReason,omitempty" db:"unassignment_reason"`
}

// IsOpen reports whether the record is the application's current assignment.
func (r *AssignmentRecord) IsOpen() bool {
	return r.UnassignedAt == nil
}

// Duration is the time the consultant held the application; zero while open.
func (r *AssignmentRecord) Duration() time.Duration {
	if r.UnassignedAt == nil {
		return 0
	}
	return r.UnassignedAt.Sub(r.AssignedAt)
}

// ConsultantStats aggregates a consultant's ledger history and current load.
type ConsultantStats struct {
	ConsultantID              string  `json:"consultantId"`
	TotalAssignments          int     `json:"totalAssignments"`
	ActiveAssignments         int     `json:"activeAssignments"`
	CompletedAssignments      int     `json:"completedAssignments"`
	AverageAssignmentHours    float64 `json:"averageAssignmentHours"`
	CurrentActiveApplications int     `json:"currentActiveApplications"`
	MaxConcurrentCapacity     int     `json:"maxConcurrentCapacity"`
	LoadPercentage            float64 `json:"loadPercentage"`
	Eligible                  bool    `json:"eligible"`
}
