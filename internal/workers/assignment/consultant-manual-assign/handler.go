// internal/workers/assignment/consultant-manual-assign/handler.go
package consultantmanualassign

import (
	"context"

	"consultant-workflow/internal/assignment"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "consultant-manual-assign"

	defaultReason = "manual assignment"
)

// ManualAssigner assigns a staff-chosen consultant and records it on the room.
type ManualAssigner interface {
	ManualAssign(ctx context.Context, applicationID, consultantID, assignedBy, reason string) (*assignment.AssignResult, *models.WorkflowRoom, error)
}

type Handler struct {
	config   *Config
	assigner ManualAssigner
	runner   *events.Runner
	logger   logger.Logger
}

func NewHandler(config *Config, assigner ManualAssigner, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		assigner: assigner,
		runner:   events.NewRunner(TaskType, config.Timeout, log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	reason := input.Reason
	if reason == "" {
		reason = defaultReason
	}

	res, room, err := h.assigner.ManualAssign(ctx, input.ApplicationID, input.ConsultantID, input.AssignedBy, reason)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ConsultantID: res.Consultant.ID,
		RoomOutcome:  *events.NewRoomOutcome(roomResult(room)),
	}
	if res.Record != nil {
		out.AssignmentID = res.Record.ID
		if res.Record.PreviousConsultantID != nil {
			out.PreviousConsultantID = *res.Record.PreviousConsultantID
		}
	}
	out.Reassigned = res.Closed != nil

	h.logger.Info("consultant manually assigned", map[string]interface{}{
		"applicationId":        input.ApplicationID,
		"consultantId":         out.ConsultantID,
		"previousConsultantId": out.PreviousConsultantID,
		"assignedBy":           input.AssignedBy,
	})
	return out, nil
}

func roomResult(room *models.WorkflowRoom) *workflow.Result {
	if room == nil {
		return nil
	}
	return &workflow.Result{Room: room}
}
