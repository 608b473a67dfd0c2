package events

import (
	"context"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Runner drives one job: execute under a timeout, then complete the job with the
// output or hand the error to the ErrorHandler.
type Runner struct {
	taskType     string
	timeout      time.Duration
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewRunner(taskType string, timeout time.Duration, log logger.Logger) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Runner{
		taskType:     taskType,
		timeout:      timeout,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (r *Runner) Run(client worker.JobClient, job entities.Job, exec func(ctx context.Context) (interface{}, error)) {
	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := exec(ctx)
	if err != nil {
		code := apperrors.AsStandardError(err).Code
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(code)).Inc()
		r.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	if err := r.complete(client, job, output); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, "COMPLETE_FAILED").Inc()
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
}

func (r *Runner) complete(client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}
