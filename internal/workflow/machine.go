package workflow

import (
	"fmt"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
)

// Policy holds the configurable parts of room behaviour.
type Policy struct {
	// MaxNotes bounds the journal; the oldest notes are dropped first. Zero keeps all.
	MaxNotes      int
	WelcomeText   string
	SystemActorID string
	Settings      models.RoomSettings
}

// StatusTransition is one row of the status lookup table.
type StatusTransition struct {
	Status   models.RoomStatus
	Priority models.RoomPriority
}

// statusTable maps an external application status onto the room. The row overwrites
// both axes; events apply in arrival order.
var statusTable = map[models.ApplicationStatus]StatusTransition{
	models.ApplicationStatusSubmitted:              {models.RoomStatusAwaitingDocuments, models.PriorityMedium},
	models.ApplicationStatusUnderReview:            {models.RoomStatusUnderReview, models.PriorityHigh},
	models.ApplicationStatusAdditionalInfoRequired: {models.RoomStatusNeedsInfo, models.PriorityUrgent},
	models.ApplicationStatusApproved:               {models.RoomStatusApproved, models.PriorityLow},
	models.ApplicationStatusRejected:               {models.RoomStatusRejected, models.PriorityLow},
	models.ApplicationStatusCompleted:              {models.RoomStatusCompleted, models.PriorityLow},
	models.ApplicationStatusCancelled:              {models.RoomStatusArchived, models.PriorityLow},
}

// LookupStatus returns the room row for an application status.
func LookupStatus(s models.ApplicationStatus) (StatusTransition, bool) {
	t, ok := statusTable[s]
	return t, ok
}

// Change describes what a transition did to a room.
type Change struct {
	Kind             EventKind
	PreviousStatus   models.RoomStatus
	PreviousPriority models.RoomPriority
	Status           models.RoomStatus
	Priority         models.RoomPriority
	// Ignored is set when the event had no effect beyond refreshing activity, e.g. an
	// application status without a table row.
	Ignored bool
}

func (c Change) StatusChanged() bool   { return c.Status != c.PreviousStatus }
func (c Change) PriorityChanged() bool { return c.Priority != c.PreviousPriority }

// NewRoom builds the room for a freshly submitted application: active, medium
// priority, zeroed stats and a system welcome note that counts as the first message.
func NewRoom(id, applicationID string, now time.Time, p Policy) *models.WorkflowRoom {
	settings := p.Settings
	settings.AllowedExtensions = append([]string(nil), p.Settings.AllowedExtensions...)

	room := &models.WorkflowRoom{
		ID:             id,
		ApplicationID:  applicationID,
		Status:         models.RoomStatusActive,
		Priority:       models.PriorityMedium,
		LastActivityAt: now,
		Settings:       settings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	appendNote(room, now, p.SystemActorID, p.WelcomeText, p.MaxNotes)
	room.Stats.MessageCount = 1
	room.Stats.LastMessageAt = &now
	return room
}

// Apply runs one event against the room in place. Every event refreshes
// lastActivityAt.
func Apply(room *models.WorkflowRoom, ev Event, now time.Time, p Policy) (Change, error) {
	ch := Change{
		Kind:             ev.Kind(),
		PreviousStatus:   room.Status,
		PreviousPriority: room.Priority,
	}

	switch e := ev.(type) {
	case ConsultantAssigned:
		room.Priority = models.PriorityUrgent
		how := "automatic"
		if e.Manual {
			how = "manual"
		}
		appendNote(room, now, actorOr(e.ActorID, p), fmt.Sprintf("%s assigned as consultant (%s)", displayName(e.ConsultantName, e.ConsultantID), how), p.MaxNotes)

	case ConsultantUnassigned:
		text := "Consultant " + e.ConsultantID + " unassigned"
		if e.Reason != "" {
			text += ": " + e.Reason
		}
		appendNote(room, now, actorOr(e.ActorID, p), text, p.MaxNotes)

	case NoConsultantAvailable:
		appendNote(room, now, actorOr(e.ActorID, p), "Unassigned: no consultant available", p.MaxNotes)

	case MessagePosted:
		room.Stats.MessageCount++
		room.Stats.LastMessageAt = &now
		if !e.IsStaff {
			room.Priority = models.PriorityUrgent
		}

	case DocumentUploaded:
		room.Stats.DocumentCount++
		room.Stats.PendingDocuments++
		room.Priority = models.PriorityUrgent
		if room.Status == models.RoomStatusAwaitingDocuments {
			room.Status = models.RoomStatusUnderReview
		}

	case DocumentReviewed:
		if room.Stats.PendingDocuments > 0 {
			room.Stats.PendingDocuments--
		}
		if e.Approved {
			room.Stats.ApprovedDocuments++
		}

	case StatusChanged:
		row, ok := LookupStatus(e.NewStatus)
		if !ok {
			ch.Ignored = true
			break
		}
		room.Status = row.Status
		room.Priority = row.Priority

	case PriorityOverridden:
		if _, ok := models.ParsePriority(string(e.Priority)); !ok {
			return ch, apperrors.NewInvalidPriorityError(string(e.Priority))
		}
		room.Priority = e.Priority
		text := fmt.Sprintf("Priority set to %s by %s", e.Priority, actorOr(e.ActorID, p))
		if e.Justification != "" {
			text += ": " + e.Justification
		}
		appendNote(room, now, actorOr(e.ActorID, p), text, p.MaxNotes)

	default:
		return ch, apperrors.NewInvalidEventPayloadError(string(ev.Kind()), "unsupported room event")
	}

	room.LastActivityAt = now
	room.UpdatedAt = now
	ch.Status = room.Status
	ch.Priority = room.Priority
	return ch, nil
}

func appendNote(room *models.WorkflowRoom, at time.Time, actorID, text string, max int) {
	room.Notes = append(room.Notes, models.RoomNote{Timestamp: at, ActorID: actorID, Text: text})
	if max > 0 && len(room.Notes) > max {
		room.Notes = append([]models.RoomNote(nil), room.Notes[len(room.Notes)-max:]...)
	}
}

func actorOr(actorID string, p Policy) string {
	if actorID == "" {
		return p.SystemActorID
	}
	return actorID
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
