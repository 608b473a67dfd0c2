// internal/workers/room/room-priority-override/handler.go
package roompriorityoverride

import (
	"context"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "room-priority-override"
)

type Handler struct {
	config *Config
	rooms  events.RoomEventHandler
	runner *events.Runner
	logger logger.Logger
}

func NewHandler(config *Config, rooms events.RoomEventHandler, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		rooms:  rooms,
		runner: events.NewRunner(TaskType, config.Timeout, log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		var input Input
		if err := events.Decode(job.Variables, inputSchema, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	priority, ok := models.ParsePriority(input.Priority)
	if !ok {
		return nil, apperrors.NewInvalidPriorityError(input.Priority)
	}

	ref := workflow.ByRoom(input.RoomID)
	if input.RoomID == "" {
		ref = workflow.ByApplication(input.ApplicationID)
	}

	res, err := h.rooms.Handle(ctx, ref, workflow.PriorityOverridden{
		ActorID:       input.ActorID,
		Priority:      priority,
		Justification: input.Justification,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{RoomOutcome: *events.NewRoomOutcome(res)}
	if res != nil {
		out.PreviousPriority = string(res.Change.PreviousPriority)
		h.logger.Info("room priority overridden", map[string]interface{}{
			"roomId":   res.Room.ID,
			"actorId":  input.ActorID,
			"from":     out.PreviousPriority,
			"priority": out.Priority,
		})
	}
	return out, nil
}
