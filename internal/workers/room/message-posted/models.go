// internal/workers/room/message-posted/models.go
package messageposted

import "consultant-workflow/internal/workers/events"

type Input struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	IsStaff  bool   `json:"isStaff"`
}

type Output = events.RoomOutcome

var inputSchema = events.MustSchema(TaskType, `{
	"type": "object",
	"required": ["roomId", "senderId", "isStaff"],
	"properties": {
		"roomId":   {"type": "string", "minLength": 1},
		"senderId": {"type": "string", "minLength": 1},
		"isStaff":  {"type": "boolean"}
	}
}`)
