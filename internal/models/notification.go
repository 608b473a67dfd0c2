// internal/models/notification.go
package models

import "time"

// Notification types produced by the fanout.
const (
	NotificationConsultantAssigned   = "consultant_assigned"
	NotificationConsultantUnassigned = "consultant_unassigned"
	NotificationMessagePosted        = "message_posted"
	NotificationDocumentUploaded     = "document_uploaded"
	NotificationDocumentReviewed     = "document_reviewed"
	NotificationStatusChanged        = "status_changed"
	NotificationPriorityChanged      = "priority_changed"
)

// NotificationRecord is created only by the fanout and mutated only by its recipient.
type NotificationRecord struct {
	ID              string                 `json:"id" db:"id"`
	RecipientUserID string                 `json:"recipientUserId" db:"recipient_user_id"`
	Type            string                 `json:"type" db:"type"`
	Title           string                 `json:"title" db:"title"`
	Body            string                 `json:"body" db:"body"`
	ContextData     map[string]interface{} `json:"contextData,omitempty" db:"context_data"`
	IsRead          bool                   `json:"isRead" db:"is_read"`
	ReadAt          *time.Time             `json:"readAt,omitempty" db:"read_at"`
	CreatedAt       time.Time              `json:"createdAt" db:"created_at"`
}
