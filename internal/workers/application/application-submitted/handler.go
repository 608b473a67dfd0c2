// internal/workers/application/application-submitted/handler.go
package applicationsubmitted

import (
	"context"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "application-submitted"
)

// Submitter creates the room and routes a submitted application.
type Submitter interface {
	Submit(ctx context.Context, s workflow.Submission) (*workflow.SubmissionResult, error)
}

type Handler struct {
	config    *Config
	submitter Submitter
	runner    *events.Runner
	logger    logger.Logger
}

func NewHandler(config *Config, submitter Submitter, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		submitter: submitter,
		runner:    events.NewRunner(TaskType, config.Timeout, log),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	res, err := h.submitter.Submit(ctx, workflow.Submission{
		ApplicationID: input.ApplicationID,
		UserID:        input.UserID,
		SectorID:      input.SectorID,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		RoomID:            res.Room.ID,
		RoomCreated:       res.RoomCreated,
		RoomStatus:        string(res.Room.Status),
		RoomPriority:      string(res.Room.Priority),
		AssignmentOutcome: string(res.Assignment.Outcome),
		EligibleCount:     res.Assignment.Selection.Eligible,
	}
	if res.Assignment.Assigned() {
		out.ConsultantID = res.Assignment.Consultant.ID
		if res.Assignment.Record != nil {
			out.AssignmentID = res.Assignment.Record.ID
		}
	}

	h.logger.Info("application routed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"outcome":       out.AssignmentOutcome,
		"consultantId":  out.ConsultantID,
	})
	return out, nil
}
