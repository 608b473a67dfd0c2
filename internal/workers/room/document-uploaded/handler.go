// internal/workers/room/document-uploaded/handler.go
package documentuploaded

import (
	"context"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "document-uploaded"
)

type Handler struct {
	config *Config
	rooms  events.RoomEventHandler
	runner *events.Runner
}

func NewHandler(config *Config, rooms events.RoomEventHandler, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		rooms:  rooms,
		runner: events.NewRunner(TaskType, config.Timeout, log),
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
	res, err := h.rooms.Handle(ctx, workflow.ByRoom(input.RoomID), workflow.DocumentUploaded{
		UploaderID:   input.UploaderID,
		UploaderRole: input.UploaderRole,
		DocumentName: input.DocumentName,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{RoomOutcome: *events.NewRoomOutcome(res)}
	if res != nil {
		out.DocumentCount = res.Room.Stats.DocumentCount
		out.PendingDocuments = res.Room.Stats.PendingDocuments
	}
	return out, nil
}
