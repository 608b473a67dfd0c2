package events

import (
	"context"

	"consultant-workflow/internal/workflow"
)

// RoomEventHandler is the part of the room lifecycle coordinator the room workers use.
type RoomEventHandler interface {
	Handle(ctx context.Context, ref workflow.RoomRef, ev workflow.Event) (*workflow.Result, error)
}

// RoomOutcome is the job output shared by the room event workers. An event for a room
// that does not exist completes the job with roomFound=false.
type RoomOutcome struct {
	RoomFound bool   `json:"roomFound"`
	RoomID    string `json:"roomId,omitempty"`
	Status    string `json:"roomStatus,omitempty"`
	Priority  string `json:"roomPriority,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
}

func NewRoomOutcome(res *workflow.Result) *RoomOutcome {
	if res == nil || res.Room == nil {
		return &RoomOutcome{RoomFound: false}
	}
	return &RoomOutcome{
		RoomFound: true,
		RoomID:    res.Room.ID,
		Status:    string(res.Room.Status),
		Priority:  string(res.Room.Priority),
		Ignored:   res.Change.Ignored,
	}
}
