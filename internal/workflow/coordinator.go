package workflow

import (
	"context"
	stderrors "errors"
	"time"

	"consultant-workflow/internal/common/config"
	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/notification"

	"github.com/google/uuid"
)

// RoomObserver is told about every committed room write.
type RoomObserver interface {
	OnRoomChange(ctx context.Context, room models.WorkflowRoom)
}

// Result is the outcome of a handled event.
type Result struct {
	Room   *models.WorkflowRoom
	Change Change
}

// Coordinator applies lifecycle events to rooms. Rooms are independent of each other;
// each event is one read-modify-write of a single room.
type Coordinator struct {
	store     Store
	policy    Policy
	publisher notification.Publisher
	observers []RoomObserver
	logger    logger.Logger
	clock     func() time.Time
	newID     func() string
}

type Option func(*Coordinator)

func WithRoomObservers(obs ...RoomObserver) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, obs...) }
}

func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// PolicyFromConfig builds the room policy from the rooms section.
func PolicyFromConfig(cfg config.RoomsConfig) Policy {
	return Policy{
		MaxNotes:      cfg.MaxNotes,
		WelcomeText:   cfg.WelcomeText,
		SystemActorID: cfg.SystemActorID,
		Settings: models.RoomSettings{
			AllowApplicantUploads: cfg.UploadPolicy.AllowApplicantUploads,
			MaxFileSizeMB:         cfg.UploadPolicy.MaxFileSizeMB,
			AllowedExtensions:     cfg.UploadPolicy.AllowedExtensions,
		},
	}
}

func NewCoordinator(store Store, policy Policy, publisher notification.Publisher, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		policy:    policy,
		publisher: publisher,
		logger:    logger.ForComponent(log, "room-lifecycle"),
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoom creates the application's room. A room is created once; a repeated call
// returns the existing room with created=false.
func (c *Coordinator) CreateRoom(ctx context.Context, applicationID string) (room *models.WorkflowRoom, created bool, err error) {
	room = NewRoom(c.newID(), applicationID, c.clock(), c.policy)

	err = c.store.InsertRoom(ctx, room)
	if stderrors.Is(err, apperrors.ErrRoomAlreadyExists) {
		existing, getErr := c.store.GetRoom(ctx, ByApplication(applicationID))
		if getErr != nil {
			return nil, false, apperrors.ClassifyPersistenceError("get_room", getErr)
		}
		c.logger.Info("room already exists", map[string]interface{}{
			"applicationId": applicationID,
		})
		return existing, false, nil
	}
	if err != nil {
		return nil, false, apperrors.ClassifyPersistenceError("create_room", err)
	}

	metrics.RoomEventsTotal.WithLabelValues("room_created").Inc()
	c.logger.Info("room created", map[string]interface{}{
		"applicationId": applicationID,
		"roomId":        room.ID,
	})
	c.observe(ctx, room)
	return room, true, nil
}

// Handle applies ev to the referenced room. An event for a room that does not exist
// is logged and dropped: Handle returns nil, nil and no room is created.
func (c *Coordinator) Handle(ctx context.Context, ref RoomRef, ev Event) (*Result, error) {
	var change Change
	room, err := c.store.UpdateRoom(ctx, ref, func(room *models.WorkflowRoom) error {
		var applyErr error
		change, applyErr = Apply(room, ev, c.clock(), c.policy)
		return applyErr
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrRoomNotFound) {
			metrics.RoomEventsDropped.WithLabelValues(string(ev.Kind()), "room_not_found").Inc()
			c.logger.Warn("event dropped: no room", map[string]interface{}{
				"event":   string(ev.Kind()),
				"ref":     ref.String(),
				"actorId": ev.Actor(),
			})
			return nil, nil
		}
		return nil, apperrors.ClassifyPersistenceError("update_room", err)
	}

	metrics.RoomEventsTotal.WithLabelValues(string(ev.Kind())).Inc()
	fields := map[string]interface{}{
		"event":         string(ev.Kind()),
		"roomId":        room.ID,
		"applicationId": room.ApplicationID,
		"status":        string(room.Status),
		"priority":      string(room.Priority),
	}
	if change.Ignored {
		c.logger.Warn("event had no mapped transition", fields)
	} else {
		c.logger.Debug("room updated", fields)
	}

	c.observe(ctx, room)
	if n, ok := notificationFor(ev, room, change); ok && c.publisher != nil {
		c.publisher.Publish(ctx, n)
	}
	return &Result{Room: room, Change: change}, nil
}

// GetRoom reads a room; nil when it does not exist.
func (c *Coordinator) GetRoom(ctx context.Context, ref RoomRef) (*models.WorkflowRoom, error) {
	room, err := c.store.GetRoom(ctx, ref)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("get_room", err)
	}
	return room, nil
}

func (c *Coordinator) observe(ctx context.Context, room *models.WorkflowRoom) {
	for _, o := range c.observers {
		o.OnRoomChange(ctx, *room)
	}
}

// notificationFor maps a committed room event onto the participant notification it
// produces, if any.
func notificationFor(ev Event, room *models.WorkflowRoom, change Change) (notification.Event, bool) {
	n := notification.Event{
		ApplicationID: room.ApplicationID,
		RoomID:        room.ID,
		ActorID:       ev.Actor(),
		Payload: map[string]interface{}{
			"roomStatus":   string(room.Status),
			"roomPriority": string(room.Priority),
		},
	}

	switch e := ev.(type) {
	case ConsultantAssigned:
		n.Type = models.NotificationConsultantAssigned
		n.Payload["consultantId"] = e.ConsultantID
		n.Payload["consultantName"] = displayName(e.ConsultantName, e.ConsultantID)
	case ConsultantUnassigned:
		n.Type = models.NotificationConsultantUnassigned
		n.ConsultantID = e.ConsultantID
		n.Payload["consultantId"] = e.ConsultantID
		n.Payload["reason"] = e.Reason
	case MessagePosted:
		n.Type = models.NotificationMessagePosted
		n.Payload["isStaff"] = e.IsStaff
	case DocumentUploaded:
		n.Type = models.NotificationDocumentUploaded
		n.Payload["documentName"] = e.DocumentName
		n.Payload["uploaderRole"] = e.UploaderRole
	case DocumentReviewed:
		n.Type = models.NotificationDocumentReviewed
		n.Payload["documentName"] = e.DocumentName
		n.Payload["approved"] = e.Approved
	case StatusChanged:
		if change.Ignored {
			return n, false
		}
		n.Type = models.NotificationStatusChanged
		n.Payload["applicationStatus"] = string(e.NewStatus)
	case PriorityOverridden:
		n.Type = models.NotificationPriorityChanged
		n.Payload["justification"] = e.Justification
	default:
		return n, false
	}
	return n, true
}
