package workflow

import (
	"context"

	"consultant-workflow/internal/assignment"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
)

// Assigner is the assignment side the engine drives.
type Assigner interface {
	AutoAssign(ctx context.Context, applicationID, sectorID string) (*assignment.AssignResult, error)
	ManualAssign(ctx context.Context, applicationID, consultantID, assignedBy, reason string) (*assignment.AssignResult, error)
	Unassign(ctx context.Context, applicationID, unassignedBy, reason string) (*models.AssignmentRecord, error)
}

// Submission is the ApplicationSubmitted event.
type Submission struct {
	ApplicationID string
	UserID        string
	SectorID      string
}

type SubmissionResult struct {
	Room        *models.WorkflowRoom
	RoomCreated bool
	Assignment  *assignment.AssignResult
}

// Engine sequences assignment and room transitions for the events that touch both.
type Engine struct {
	assigner    Assigner
	rooms       *Coordinator
	systemActor string
	logger      logger.Logger
}

func NewEngine(assigner Assigner, rooms *Coordinator, systemActor string, log logger.Logger) *Engine {
	return &Engine{
		assigner:    assigner,
		rooms:       rooms,
		systemActor: systemActor,
		logger:      logger.ForComponent(log, "workflow-engine"),
	}
}

// Rooms exposes the lifecycle coordinator for room-only events.
func (e *Engine) Rooms() *Coordinator {
	return e.rooms
}

// Submit creates the room and routes the application. When nobody is eligible the
// room records that it is unassigned and the result still succeeds. Submitting an
// application that already has a room and a consultant changes nothing.
func (e *Engine) Submit(ctx context.Context, s Submission) (*SubmissionResult, error) {
	room, created, err := e.rooms.CreateRoom(ctx, s.ApplicationID)
	if err != nil {
		return nil, err
	}
	out := &SubmissionResult{Room: room, RoomCreated: created}

	res, err := e.assigner.AutoAssign(ctx, s.ApplicationID, s.SectorID)
	if err != nil {
		return nil, err
	}
	out.Assignment = res

	if res.Outcome == assignment.OutcomeAlreadyAssigned && !created {
		// redelivered submission: routing and the room transition already happened
		e.logger.Info("application already routed", map[string]interface{}{
			"applicationId": s.ApplicationID,
			"consultantId":  res.Consultant.ID,
		})
		return out, nil
	}

	var ev Event
	if res.Assigned() {
		ev = ConsultantAssigned{
			ActorID:        e.systemActor,
			ConsultantID:   res.Consultant.ID,
			ConsultantName: res.Consultant.Name,
		}
	} else {
		ev = NoConsultantAvailable{ActorID: e.systemActor, SectorID: s.SectorID}
	}

	handled, err := e.rooms.Handle(ctx, ByApplication(s.ApplicationID), ev)
	if err != nil {
		return nil, err
	}
	if handled != nil {
		out.Room = handled.Room
	}

	e.logger.Info("application submitted", map[string]interface{}{
		"applicationId": s.ApplicationID,
		"userId":        s.UserID,
		"sectorId":      s.SectorID,
		"outcome":       string(res.Outcome),
		"roomCreated":   created,
	})
	return out, nil
}

// ManualAssign assigns a staff-chosen consultant and records it on the room.
func (e *Engine) ManualAssign(ctx context.Context, applicationID, consultantID, assignedBy, reason string) (*assignment.AssignResult, *models.WorkflowRoom, error) {
	res, err := e.assigner.ManualAssign(ctx, applicationID, consultantID, assignedBy, reason)
	if err != nil {
		return nil, nil, err
	}
	handled, err := e.rooms.Handle(ctx, ByApplication(applicationID), ConsultantAssigned{
		ActorID:        assignedBy,
		ConsultantID:   res.Consultant.ID,
		ConsultantName: res.Consultant.Name,
		Manual:         true,
	})
	if err != nil {
		return res, nil, err
	}
	return res, roomOf(handled), nil
}

// Unassign removes the consultant and notes it on the room.
func (e *Engine) Unassign(ctx context.Context, applicationID, unassignedBy, reason string) (*models.AssignmentRecord, *models.WorkflowRoom, error) {
	closed, err := e.assigner.Unassign(ctx, applicationID, unassignedBy, reason)
	if err != nil {
		return nil, nil, err
	}
	handled, err := e.rooms.Handle(ctx, ByApplication(applicationID), ConsultantUnassigned{
		ActorID:      unassignedBy,
		ConsultantID: closed.ConsultantID,
		Reason:       reason,
	})
	if err != nil {
		return closed, nil, err
	}
	return closed, roomOf(handled), nil
}

func roomOf(r *Result) *models.WorkflowRoom {
	if r == nil {
		return nil
	}
	return r.Room
}
