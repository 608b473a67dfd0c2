package workflow

import (
	"context"

	"consultant-workflow/internal/models"
)

// Store persists workflow rooms.
type Store interface {
	// InsertRoom fails with ROOM_ALREADY_EXISTS when the application has a room.
	InsertRoom(ctx context.Context, room *models.WorkflowRoom) error
	// GetRoom returns nil when no room matches.
	GetRoom(ctx context.Context, ref RoomRef) (*models.WorkflowRoom, error)
	// UpdateRoom loads the room under a row lock, lets fn mutate it and writes it back in
	// one transaction. It fails with ROOM_NOT_FOUND when no room matches; an error from
	// fn discards the change.
	UpdateRoom(ctx context.Context, ref RoomRef, fn func(room *models.WorkflowRoom) error) (*models.WorkflowRoom, error)
}
