// internal/workers/assignment/consultant-manual-assign/models.go
package consultantmanualassign

import "consultant-workflow/internal/workers/events"

type Input struct {
	ApplicationID string `json:"applicationId"`
	ConsultantID  string `json:"consultantId"`
	AssignedBy    string `json:"assignedBy"`
	Reason        string `json:"reason,omitempty"`
}

type Output struct {
	ConsultantID         string `json:"consultantId"`
	AssignmentID         string `json:"assignmentRecordId"`
	PreviousConsultantID string `json:"previousConsultantId,omitempty"`
	Reassigned           bool   `json:"reassigned"`
	events.RoomOutcome
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["applicationId", "consultantId", "assignedBy"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"consultantId":  {"type": "string", "minLength": 1},
		"assignedBy":    {"type": "string", "minLength": 1},
		"reason":        {"type": "string"}
	}
}`)
