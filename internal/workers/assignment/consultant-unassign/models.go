// internal/workers/assignment/consultant-unassign/models.go
package consultantunassign

import "consultant-workflow/internal/workers/events"

type Input struct {
	ApplicationID string `json:"applicationId"`
	UnassignedBy  string `json:"unassignedBy"`
	Reason        string `json:"reason,omitempty"`
}

type Output struct {
	ClosedAssignmentID string  `json:"closedAssignmentRecordId"`
	ConsultantID       string  `json:"consultantId"`
	DurationHours      float64 `json:"durationHours"`
	events.RoomOutcome
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["applicationId", "unassignedBy"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"unassignedBy":  {"type": "string", "minLength": 1},
		"reason":        {"type": "string"}
	}
}`)
