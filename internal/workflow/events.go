// Package workflow keeps each application's workflow room consistent with the
// events that arrive for it.
package workflow

import "consultant-workflow/internal/models"

// EventKind names a room lifecycle event.
type EventKind string

const (
	KindConsultantAssigned    EventKind = "consultant_assigned"
	KindConsultantUnassigned  EventKind = "consultant_unassigned"
	KindNoConsultantAvailable EventKind = "no_consultant_available"
	KindMessagePosted         EventKind = "message_posted"
	KindDocumentUploaded      EventKind = "document_uploaded"
	KindDocumentReviewed      EventKind = "document_reviewed"
	KindStatusChanged         EventKind = "status_changed"
	KindPriorityOverridden    EventKind = "priority_overridden"
)

// Event is applied to an existing room. Room creation is not an Event.
type Event interface {
	Kind() EventKind
	Actor() string
}

type ConsultantAssigned struct {
	ActorID        string
	ConsultantID   string
	ConsultantName string
	Manual         bool
}

type ConsultantUnassigned struct {
	ActorID      string
	ConsultantID string
	Reason       string
}

// NoConsultantAvailable records that automatic routing found nobody.
type NoConsultantAvailable struct {
	ActorID  string
	SectorID string
}

type MessagePosted struct {
	SenderID string
	IsStaff  bool
}

type DocumentUploaded struct {
	UploaderID   string
	UploaderRole string
	DocumentName string
}

type DocumentReviewed struct {
	ReviewerID   string
	Approved     bool
	DocumentName string
}

// StatusChanged carries the application status set by a reviewer.
type StatusChanged struct {
	ActorID   string
	NewStatus models.ApplicationStatus
}

type PriorityOverridden struct {
	ActorID       string
	Priority      models.RoomPriority
	Justification string
}

func (ConsultantAssigned) Kind() EventKind    { return KindConsultantAssigned }
func (ConsultantUnassigned) Kind() EventKind  { return KindConsultantUnassigned }
func (NoConsultantAvailable) Kind() EventKind { return KindNoConsultantAvailable }
func (MessagePosted) Kind() EventKind         { return KindMessagePosted }
func (DocumentUploaded) Kind() EventKind      { return KindDocumentUploaded }
func (DocumentReviewed) Kind() EventKind      { return KindDocumentReviewed }
func (StatusChanged) Kind() EventKind         { return KindStatusChanged }
func (PriorityOverridden) Kind() EventKind    { return KindPriorityOverridden }

func (e ConsultantAssigned) Actor() string    { return e.ActorID }
func (e ConsultantUnassigned) Actor() string  { return e.ActorID }
func (e NoConsultantAvailable) Actor() string { return e.ActorID }
func (e MessagePosted) Actor() string         { return e.SenderID }
func (e DocumentUploaded) Actor() string      { return e.UploaderID }
func (e DocumentReviewed) Actor() string      { return e.ReviewerID }
func (e StatusChanged) Actor() string         { return e.ActorID }
func (e PriorityOverridden) Actor() string    { return e.ActorID }

// RoomRef addresses a room by its own id or by its application. Inbound message and
// document events know the room; status and assignment events know the application.
type RoomRef struct {
	RoomID        string
	ApplicationID string
}

func ByRoom(id string) RoomRef        { return RoomRef{RoomID: id} }
func ByApplication(id string) RoomRef { return RoomRef{ApplicationID: id} }

func (r RoomRef) String() string {
	if r.RoomID != "" {
		return "room " + r.RoomID
	}
	return "application " + r.ApplicationID
}
