// internal/workers/assignment/consultant-unassign/handler.go
package consultantunassign

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
	TaskType = "consultant-unassign"
)

// Unassigner removes the current consultant and notes it on the room.
type Unassigner interface {
	Unassign(ctx context.Context, applicationID, unassignedBy, reason string) (*models.AssignmentRecord, *models.WorkflowRoom, error)
}

type Handler struct {
	config     *Config
	unassigner Unassigner
	runner     *events.Runner
	logger     logger.Logger
}

func NewHandler(config *Config, unassigner Unassigner, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		unassigner: unassigner,
		runner:     events.NewRunner(TaskType, config.Timeout, log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	closed, room, err := h.unassigner.Unassign(ctx, input.ApplicationID, input.UnassignedBy, input.Reason)
	if err != nil {
		return nil, err
	}

	var res *workflow.Result
	if room != nil {
		res = &workflow.Result{Room: room}
	}
	out := &Output{
		ClosedAssignmentID: closed.ID,
		ConsultantID:       closed.ConsultantID,
		DurationHours:      closed.Duration().Hours(),
		RoomOutcome:        *events.NewRoomOutcome(res),
	}

	h.logger.Info("consultant unassigned", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"consultantId":  closed.ConsultantID,
		"recordId":      closed.ID,
		"unassignedBy":  input.UnassignedBy,
	})
	return out, nil
}
