package workflow

import (
	"context"
	"testing"

	"consultant-workflow/internal/assignment"
	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAssigner struct {
	mock.Mock
}

func (m *mockAssigner) AutoAssign(ctx context.Context, applicationID, sectorID string) (*assignment.AssignResult, error) {
	args := m.Called(ctx, applicationID, sectorID)
	res, _ := args.Get(0).(*assignment.AssignResult)
	return res, args.Error(1)
}

func (m *mockAssigner) ManualAssign(ctx context.Context, applicationID, consultantID, assignedBy, reason string) (*assignment.AssignResult, error) {
	args := m.Called(ctx, applicationID, consultantID, assignedBy, reason)
	res, _ := args.Get(0).(*assignment.AssignResult)
	return res, args.Error(1)
}

func (m *mockAssigner) Unassign(ctx context.Context, applicationID, unassignedBy, reason string) (*models.AssignmentRecord, error) {
	args := m.Called(ctx, applicationID, unassignedBy, reason)
	rec, _ := args.Get(0).(*models.AssignmentRecord)
	return rec, args.Error(1)
}

func sectorConsultant(id string, active, capacity int, rating float64) models.Consultant {
	return models.Consultant{
		ID: id, Name: "Consultant " + id, Role: models.RoleConsultant, IsApproved: true, IsActive: true,
		SectorID: "S", ActiveStatus: models.ConsultantStatusActive, RatingScore: rating,
		MaxConcurrentCapacity: capacity, CurrentActiveCount: active,
	}
}

func TestEngine_SubmitAssignsLeastLoadedAndMarksRoomUrgent(t *testing.T) {
	rooms, _, pub := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))

	sel := assignment.SelectBest([]models.Consultant{
		sectorConsultant("C1", 2, 3, 4.5),
		sectorConsultant("C2", 1, 3, 4.0),
	}, "S")
	require.True(t, sel.Found)
	chosen := sel.Consultant

	assigner.On("AutoAssign", mock.Anything, "app1", "S").Return(&assignment.AssignResult{
		Outcome:       assignment.OutcomeAssigned,
		ApplicationID: "app1",
		Consultant:    &chosen,
		Selection:     sel,
	}, nil)

	out, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", UserID: "U", SectorID: "S"})
	require.NoError(t, err)

	assert.True(t, out.RoomCreated)
	assert.Equal(t, "C2", out.Assignment.Consultant.ID)
	assert.Equal(t, models.RoomStatusActive, out.Room.Status)
	assert.Equal(t, models.PriorityUrgent, out.Room.Priority)
	assert.Equal(t, 1, out.Room.Stats.MessageCount)
	assert.Contains(t, out.Room.Notes[len(out.Room.Notes)-1].Text, "Consultant C2")

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, models.NotificationConsultantAssigned, published[0].Type)
	assert.Equal(t, "system", published[0].ActorID)
	assigner.AssertExpectations(t)
}

func TestEngine_SubmitWithoutConsultantLeavesUnassignedNote(t *testing.T) {
	rooms, _, pub := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))

	assigner.On("AutoAssign", mock.Anything, "app1", "S").Return(&assignment.AssignResult{
		Outcome:       assignment.OutcomeNoEligibleConsultant,
		ApplicationID: "app1",
	}, nil)

	out, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", UserID: "U", SectorID: "S"})
	require.NoError(t, err)

	assert.Equal(t, assignment.OutcomeNoEligibleConsultant, out.Assignment.Outcome)
	assert.Equal(t, models.PriorityMedium, out.Room.Priority)
	assert.Contains(t, out.Room.Notes[len(out.Room.Notes)-1].Text, "no consultant available")
	assert.Empty(t, pub.published())
}

func TestEngine_SubmitPropagatesPersistenceErrors(t *testing.T) {
	rooms, store, _ := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))

	assigner.On("AutoAssign", mock.Anything, "app1", "S").
		Return(nil, apperrors.NewPersistenceConflictError("auto_assign", assert.AnError))

	_, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", SectorID: "S"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))

	// room stays; a retry finds it and does not create a second one
	assert.Equal(t, 1, store.count())
}

func TestEngine_RedeliveredSubmissionKeepsRouting(t *testing.T) {
	rooms, store, pub := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))
	c := sectorConsultant("C1", 0, 1, 5.0)
	rec := &models.AssignmentRecord{ID: "rec-1", ApplicationID: "app1", ConsultantID: "C1"}

	assigner.On("AutoAssign", mock.Anything, "app1", "S").
		Return(&assignment.AssignResult{Outcome: assignment.OutcomeAssigned, Consultant: &c, Record: rec}, nil).Once()
	assigner.On("AutoAssign", mock.Anything, "app1", "S").
		Return(&assignment.AssignResult{Outcome: assignment.OutcomeAlreadyAssigned, Consultant: &c, Record: rec}, nil).Once()

	first, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", UserID: "U", SectorID: "S"})
	require.NoError(t, err)
	notes := len(first.Room.Notes)

	second, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", UserID: "U", SectorID: "S"})
	require.NoError(t, err)

	assert.False(t, second.RoomCreated)
	assert.True(t, second.Assignment.Assigned())
	assert.Equal(t, "C1", second.Assignment.Consultant.ID)
	assert.Equal(t, "rec-1", second.Assignment.Record.ID)
	assert.Len(t, second.Room.Notes, notes)
	assert.Equal(t, 1, store.count())
	assert.Len(t, pub.published(), 1)
	assigner.AssertExpectations(t)
}

func TestEngine_StatusChangeAfterSubmission(t *testing.T) {
	rooms, _, _ := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))
	c := sectorConsultant("C1", 0, 3, 4.0)
	assigner.On("AutoAssign", mock.Anything, "app1", "S").
		Return(&assignment.AssignResult{Outcome: assignment.OutcomeAssigned, Consultant: &c}, nil)

	_, err := engine.Submit(context.Background(), Submission{ApplicationID: "app1", SectorID: "S"})
	require.NoError(t, err)

	res, err := engine.Rooms().Handle(context.Background(), ByApplication("app1"), StatusChanged{
		ActorID: "reviewer", NewStatus: models.ApplicationStatusUnderReview,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusUnderReview, res.Room.Status)
	assert.Equal(t, models.PriorityHigh, res.Room.Priority)
}

func TestEngine_ManualAssignAndUnassign(t *testing.T) {
	rooms, _, pub := setupLifecycle(t)
	_, _, err := rooms.CreateRoom(context.Background(), "app1")
	require.NoError(t, err)

	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))
	c := sectorConsultant("C7", 0, 3, 4.0)

	assigner.On("ManualAssign", mock.Anything, "app1", "C7", "staff-1", "specialist").
		Return(&assignment.AssignResult{Outcome: assignment.OutcomeAssigned, Consultant: &c}, nil)
	assigner.On("Unassign", mock.Anything, "app1", "staff-1", "conflict of interest").
		Return(&models.AssignmentRecord{ID: "r1", ApplicationID: "app1", ConsultantID: "C7"}, nil)

	_, room, err := engine.ManualAssign(context.Background(), "app1", "C7", "staff-1", "specialist")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, room.Priority)
	assert.Contains(t, room.Notes[len(room.Notes)-1].Text, "(manual)")

	closed, room, err := engine.Unassign(context.Background(), "app1", "staff-1", "conflict of interest")
	require.NoError(t, err)
	assert.Equal(t, "C7", closed.ConsultantID)
	assert.Equal(t, "Consultant C7 unassigned: conflict of interest", room.Notes[len(room.Notes)-1].Text)

	published := pub.published()
	require.Len(t, published, 2)
	assert.Equal(t, "staff-1", published[0].ActorID)
	assert.Equal(t, "C7", published[1].ConsultantID)
	assigner.AssertExpectations(t)
}

func TestEngine_ManualAssignRejected(t *testing.T) {
	rooms, _, pub := setupLifecycle(t)
	assigner := &mockAssigner{}
	engine := NewEngine(assigner, rooms, "system", logger.NewTestLogger(t))

	assigner.On("ManualAssign", mock.Anything, "app1", "C9", "staff", "").
		Return(nil, apperrors.NewConsultantNotEligibleError("C9", "not_approved"))

	_, _, err := engine.ManualAssign(context.Background(), "app1", "C9", "staff", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConsultantNotEligible)
	assert.Empty(t, pub.published())
}
