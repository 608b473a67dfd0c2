// Package notification turns workflow events into per-recipient notification records
// and delivers them over the configured channels.
package notification

import "context"

// Event is one workflow occurrence that may notify the application's participants.
type Event struct {
	// Type is one of the models.Notification* constants.
	Type          string
	ApplicationID string
	RoomID        string
	// ActorID never receives a notification for its own action.
	ActorID string
	// ConsultantID overrides the consultant resolved from the application, e.g. the
	// consultant who was just removed.
	ConsultantID string
	Payload      map[string]interface{}
}

// Publisher accepts events for fanout. Publish must not fail the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}
