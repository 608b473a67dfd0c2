// internal/workers/room/document-reviewed/models.go
package documentreviewed

import "consultant-workflow/internal/workers/events"

type Input struct {
	RoomID       string `json:"roomId"`
	ReviewerID   string `json:"reviewerId"`
	Approved     bool   `json:"approved"`
	DocumentName string `json:"documentName,omitempty"`
}

type Output struct {
	events.RoomOutcome
	PendingDocuments  int `json:"pendingDocuments"`
	ApprovedDocuments int `json:"approvedDocuments"`
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["roomId", "reviewerId", "approved"],
	"properties": {
		"roomId":       {"type": "string", "minLength": 1},
		"reviewerId":   {"type": "string", "minLength": 1},
		"approved":     {"type": "boolean"},
		"documentName": {"type": "string"}
	}
}`)
