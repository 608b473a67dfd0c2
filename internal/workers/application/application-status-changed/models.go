// internal/workers/application/application-status-changed/models.go
package applicationstatuschanged

import "consultant-workflow/internal/workers/events"

type Input struct {
	ApplicationID string `json:"applicationId"`
	NewStatus     string `json:"newStatus"`
	ActorID       string `json:"actorId"`
}

type Output = events.RoomOutcome

// newStatus is not restricted to the mapped statuses; unmapped ones only refresh
// the room's activity.
var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["applicationId", "newStatus"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"newStatus":     {"type": "string", "minLength": 1},
		"actorId":       {"type": "string"}
	}
}`)
