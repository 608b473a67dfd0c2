// internal/workers/application/application-status-changed/handler.go
package applicationstatuschanged

import (
	"context"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "application-status-changed"
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
	res, err := h.rooms.Handle(ctx, workflow.ByApplication(input.ApplicationID), workflow.StatusChanged{
		ActorID:   input.ActorID,
		NewStatus: models.ApplicationStatus(input.NewStatus),
	})
	if err != nil {
		return nil, err
	}
	return events.NewRoomOutcome(res), nil
}
