package models

import "time"

// RoomStatus is the workflow room's collaboration state.
type RoomStatus string

const (
	RoomStatusActive            RoomStatus = "active"
	RoomStatusAwaitingDocuments RoomStatus = "awaiting_documents"
	RoomStatusUnderReview       RoomStatus = "under_review"
	RoomStatusNeedsInfo         RoomStatus = "needs_info"
	RoomStatusApproved          RoomStatus = "approved"
	RoomStatusRejected          RoomStatus = "rejected"
	RoomStatusCompleted         RoomStatus = "completed"
	RoomStatusArchived          RoomStatus = "archived"
)

// RoomPriority is the urgency signal, independent of RoomStatus.
type RoomPriority string

const (
	PriorityLow    RoomPriority = "low"
	PriorityMedium RoomPriority = "medium"
	PriorityHigh   RoomPriority = "high"
	PriorityUrgent RoomPriority = "urgent"
)

// ParsePriority validates a priority string.
func ParsePriority(s string) (RoomPriority, bool) {
	switch p := RoomPriority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, true
	}
	return "", false
}

// RoomNote is one entry in the room's ordered activity journal.
type RoomNote struct {
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actorId"`
	Text      string    `json:"text"`
}

// RoomSettings holds the upload policy for a room.
type RoomSettings struct {
	AllowApplicantUploads bool     `json:"allowApplicantUploads"`
	MaxFileSizeMB         int      `json:"maxFileSizeMb"`
	AllowedExtensions     []string `json:"allowedExtensions"`
}

// RoomStats are the activity counters kept on the room.
type RoomStats struct {
	MessageCount      int        `json:"messageCount"`
	DocumentCount     int        `json:"documentCount"`
	PendingDocuments  int        `json:"pendingDocuments"`
	ApprovedDocuments int        `json:"approvedDocuments"`
	LastMessageAt     *time.Time `json:"lastMessageAt,omitempty"`
}

// WorkflowRoom is the per-application collaboration record. Exactly one exists per
// application and it is never deleted.
type WorkflowRoom struct {
	ID             string       `json:"id" db:"id"`
	ApplicationID  string       `json:"applicationId" db:"application_id"`
	Status         RoomStatus   `json:"status" db:"status"`
	Priority       RoomPriority `json:"priority" db:"priority"`
	LastActivityAt time.Time    `json:"lastActivityAt" db:"last_activity_at"`
	Notes          []RoomNote   `json:"notes" db:"notes"`
	Settings       RoomSettings `json:"settings" db:"settings"`
	Stats          RoomStats    `json:"stats" db:"stats"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}
