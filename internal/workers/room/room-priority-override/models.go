// internal/workers/room/room-priority-override/models.go
package roompriorityoverride

import "consultant-workflow/internal/workers/events"

// Input addresses the room by roomId or, failing that, applicationId.
type Input struct {
	RoomID        string `json:"roomId,omitempty"`
	ApplicationID string `json:"applicationId,omitempty"`
	ActorID       string `json:"actorId"`
	Priority      string `json:"priority"`
	Justification string `json:"justification,omitempty"`
}

type Output struct {
	events.RoomOutcome
	PreviousPriority string `json:"previousPriority,omitempty"`
}

// priority stays a plain string here so an unknown value reports INVALID_PRIORITY.
var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["actorId", "priority"],
	"anyOf": [
		{"required": ["roomId"]},
		{"required": ["applicationId"]}
	],
	"properties": {
		"roomId":        {"type": "string", "minLength": 1},
		"applicationId": {"type": "string", "minLength": 1},
		"actorId":       {"type": "string", "minLength": 1},
		"priority":      {"type": "string"},
		"justification": {"type": "string"}
	}
}`)
