// internal/workers/application/application-submitted/handler_test.go
package applicationsubmitted

import (
	"context"
	"testing"

	"consultant-workflow/internal/assignment"
	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"
	"consultant-workflow/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, s workflow.Submission) (*workflow.SubmissionResult, error) {
	args := m.Called(ctx, s)
	res, _ := args.Get(0).(*workflow.SubmissionResult)
	return res, args.Error(1)
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestInput() *Input {
	return &Input{ApplicationID: "app-001", UserID: "user-001", SectorID: "sector-001"}
}

func testRoom(priority models.RoomPriority) *models.WorkflowRoom {
	return &models.WorkflowRoom{
		ID: "room-001", ApplicationID: "app-001",
		Status: models.RoomStatusActive, Priority: priority,
	}
}

func TestHandler_Execute(t *testing.T) {
	consultant := models.Consultant{ID: "cons-002", Name: "Dana"}

	tests := []struct {
		name      string
		result    *workflow.SubmissionResult
		submitErr error
		want      *Output
		wantErr   apperrors.ErrorCode
	}{
		{
			name: "assigned",
			result: &workflow.SubmissionResult{
				Room:        testRoom(models.PriorityUrgent),
				RoomCreated: true,
				Assignment: &assignment.AssignResult{
					Outcome:    assignment.OutcomeAssigned,
					Consultant: &consultant,
					Record:     &models.AssignmentRecord{ID: "rec-001"},
					Selection:  assignment.Selection{Found: true, Considered: 3, Eligible: 2},
				},
			},
			want: &Output{
				RoomID: "room-001", RoomCreated: true, RoomStatus: "active", RoomPriority: "urgent",
				AssignmentOutcome: string(assignment.OutcomeAssigned),
				ConsultantID:      "cons-002", AssignmentID: "rec-001", EligibleCount: 2,
			},
		},
		{
			name: "redelivered job reports the existing assignment",
			result: &workflow.SubmissionResult{
				Room: testRoom(models.PriorityUrgent),
				Assignment: &assignment.AssignResult{
					Outcome:    assignment.OutcomeAlreadyAssigned,
					Consultant: &consultant,
					Record:     &models.AssignmentRecord{ID: "rec-001"},
				},
			},
			want: &Output{
				RoomID: "room-001", RoomStatus: "active", RoomPriority: "urgent",
				AssignmentOutcome: string(assignment.OutcomeAlreadyAssigned),
				ConsultantID:      "cons-002", AssignmentID: "rec-001",
			},
		},
		{
			name: "no eligible consultant completes normally",
			result: &workflow.SubmissionResult{
				Room:       testRoom(models.PriorityMedium),
				Assignment: &assignment.AssignResult{Outcome: assignment.OutcomeNoEligibleConsultant},
			},
			want: &Output{
				RoomID: "room-001", RoomStatus: "active", RoomPriority: "medium",
				AssignmentOutcome: string(assignment.OutcomeNoEligibleConsultant),
			},
		},
		{
			name:      "persistence conflict surfaces",
			submitErr: apperrors.NewPersistenceConflictError("auto_assign", assert.AnError),
			wantErr:   apperrors.ErrCodePersistenceConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &mockSubmitter{}
			submitter.On("Submit", mock.Anything, workflow.Submission{
				ApplicationID: "app-001", UserID: "user-001", SectorID: "sector-001",
			}).Return(tt.result, tt.submitErr)

			h := NewHandler(LoadConfig(), submitter, createTestLogger(t))
			out, err := h.Execute(context.Background(), createTestInput())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, apperrors.AsStandardError(err).Code)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			submitter.AssertExpectations(t)
		})
	}
}

func TestInputSchema(t *testing.T) {
	var input Input
	require.NoError(t, events.Decode(`{"applicationId":"a","userId":"u","sectorId":"s"}`, inputSchema, &input))
	assert.Equal(t, Input{ApplicationID: "a", UserID: "u", SectorID: "s"}, input)

	err := events.Decode(`{"applicationId":"a","userId":"u"}`, inputSchema, &input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEventPayload)
}
