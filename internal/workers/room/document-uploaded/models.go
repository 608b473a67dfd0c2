// internal/workers/room/document-uploaded/models.go
package documentuploaded

import "consultant-workflow/internal/workers/events"

type Input struct {
	RoomID       string `json:"roomId"`
	UploaderID   string `json:"uploaderId"`
	UploaderRole string `json:"uploaderRole,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
}

type Output struct {
	events.RoomOutcome
	DocumentCount    int `json:"documentCount"`
	PendingDocuments int `json:"pendingDocuments"`
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["roomId", "uploaderId"],
	"properties": {
		"roomId":       {"type": "string", "minLength": 1},
		"uploaderId":   {"type": "string", "minLength": 1},
		"uploaderRole": {"type": "string"},
		"documentName": {"type": "string"}
	}
}`)
