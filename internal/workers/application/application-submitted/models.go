// internal/workers/application/application-submitted/models.go
package applicationsubmitted

import "consultant-workflow/internal/workers/events"

type Input struct {
	ApplicationID string `json:"applicationId"`
	UserID        string `json:"userId"`
	SectorID      string `json:"sectorId"`
}

type Output struct {
	RoomID            string `json:"roomId"`
	RoomCreated       bool   `json:"roomCreated"`
	RoomStatus        string `json:"roomStatus"`
	RoomPriority      string `json:"roomPriority"`
	AssignmentOutcome string `json:"assignmentOutcome"`
	ConsultantID      string `json:"consultantId,omitempty"`
	AssignmentID      string `json:"assignmentRecordId,omitempty"`
	// EligibleCount is the number of sector consultants that passed the predicate.
	EligibleCount int `json:"eligibleCount"`
}

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["applicationId", "userId", "sectorId"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"userId":        {"type": "string", "minLength": 1},
		"sectorId":      {"type": "string", "minLength": 1}
	}
}`)
