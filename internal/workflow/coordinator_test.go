package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRooms struct {
	mu    sync.Mutex
	rooms map[string]models.WorkflowRoom
}

func newMemoryRooms() *memoryRooms {
	return &memoryRooms{rooms: map[string]models.WorkflowRoom{}}
}

func (m *memoryRooms) find(ref RoomRef) (string, bool) {
	for id, r := range m.rooms {
		if (ref.RoomID != "" && r.ID == ref.RoomID) || (ref.RoomID == "" && r.ApplicationID == ref.ApplicationID) {
			return id, true
		}
	}
	return "", false
}

func (m *memoryRooms) InsertRoom(_ context.Context, room *models.WorkflowRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.find(ByApplication(room.ApplicationID)); ok {
		return apperrors.NewRoomAlreadyExistsError(room.ApplicationID)
	}
	m.rooms[room.ID] = *room
	return nil
}

func (m *memoryRooms) GetRoom(_ context.Context, ref RoomRef) (*models.WorkflowRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.find(ref)
	if !ok {
		return nil, nil
	}
	r := m.rooms[id]
	return &r, nil
}

func (m *memoryRooms) UpdateRoom(_ context.Context, ref RoomRef, fn func(*models.WorkflowRoom) error) (*models.WorkflowRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.find(ref)
	if !ok {
		return nil, apperrors.NewRoomNotFoundError(ref.String())
	}
	r := m.rooms[id]
	r.Notes = append([]models.RoomNote(nil), r.Notes...)
	if err := fn(&r); err != nil {
		return nil, err
	}
	m.rooms[id] = r
	return &r, nil
}

func (m *memoryRooms) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev notification.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) published() []notification.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.Event(nil), p.events...)
}

type roomRecorder struct {
	rooms []models.WorkflowRoom
}

func (r *roomRecorder) OnRoomChange(_ context.Context, room models.WorkflowRoom) {
	r.rooms = append(r.rooms, room)
}

func setupLifecycle(t *testing.T, opts ...Option) (*Coordinator, *memoryRooms, *capturePublisher) {
	t.Helper()
	store := newMemoryRooms()
	pub := &capturePublisher{}
	clock := t0
	opts = append([]Option{
		WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }),
		WithIDGenerator(func() string { return "room-1" }),
	}, opts...)
	return NewCoordinator(store, testPolicy, pub, logger.NewTestLogger(t), opts...), store, pub
}

func TestCoordinator_CreateRoomOnce(t *testing.T) {
	rec := &roomRecorder{}
	c, store, _ := setupLifecycle(t, WithRoomObservers(rec))

	room, created, err := c.CreateRoom(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, 1, room.Stats.MessageCount)

	again, created, err := c.CreateRoom(context.Background(), "app-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, room.ID, again.ID)
	assert.Equal(t, 1, store.count())
	assert.Len(t, rec.rooms, 1)
}

func TestCoordinator_HandleUnknownRoomIsDropped(t *testing.T) {
	c, store, pub := setupLifecycle(t)

	events := []struct {
		ref RoomRef
		ev  Event
	}{
		{ByRoom("missing"), MessagePosted{SenderID: "u"}},
		{ByRoom("missing"), DocumentUploaded{UploaderID: "u"}},
		{ByApplication("missing"), StatusChanged{NewStatus: models.ApplicationStatusApproved}},
		{ByApplication("missing"), ConsultantAssigned{ConsultantID: "C1"}},
	}
	for _, e := range events {
		res, err := c.Handle(context.Background(), e.ref, e.ev)
		assert.NoError(t, err)
		assert.Nil(t, res)
	}
	assert.Zero(t, store.count())
	assert.Empty(t, pub.published())
}

func TestCoordinator_HandlePublishesNotification(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		wantType string
		wantNone bool
	}{
		{name: "applicant message", ev: MessagePosted{SenderID: "U"}, wantType: models.NotificationMessagePosted},
		{name: "upload", ev: DocumentUploaded{UploaderID: "U", DocumentName: "plan.pdf"}, wantType: models.NotificationDocumentUploaded},
		{name: "review", ev: DocumentReviewed{ReviewerID: "C1", Approved: true}, wantType: models.NotificationDocumentReviewed},
		{name: "status", ev: StatusChanged{ActorID: "R", NewStatus: models.ApplicationStatusApproved}, wantType: models.NotificationStatusChanged},
		{name: "unmapped status", ev: StatusChanged{ActorID: "R", NewStatus: models.ApplicationStatusPending}, wantNone: true},
		{name: "override", ev: PriorityOverridden{ActorID: "S", Priority: models.PriorityLow}, wantType: models.NotificationPriorityChanged},
		{name: "no consultant", ev: NoConsultantAvailable{SectorID: "S"}, wantNone: true},
		{name: "unassigned", ev: ConsultantUnassigned{ActorID: "S", ConsultantID: "C1"}, wantType: models.NotificationConsultantUnassigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, pub := setupLifecycle(t)
			_, _, err := c.CreateRoom(context.Background(), "app-1")
			require.NoError(t, err)

			res, err := c.Handle(context.Background(), ByRoom("room-1"), tt.ev)
			require.NoError(t, err)
			require.NotNil(t, res)

			published := pub.published()
			if tt.wantNone {
				assert.Empty(t, published)
				return
			}
			require.Len(t, published, 1)
			assert.Equal(t, tt.wantType, published[0].Type)
			assert.Equal(t, "app-1", published[0].ApplicationID)
			assert.Equal(t, "room-1", published[0].RoomID)
			assert.Equal(t, tt.ev.Actor(), published[0].ActorID)
		})
	}
}

func TestCoordinator_UnassignedNotificationTargetsRemovedConsultant(t *testing.T) {
	c, _, pub := setupLifecycle(t)
	_, _, err := c.CreateRoom(context.Background(), "app-1")
	require.NoError(t, err)

	_, err = c.Handle(context.Background(), ByApplication("app-1"), ConsultantUnassigned{ActorID: "staff", ConsultantID: "C1"})
	require.NoError(t, err)
	require.Len(t, pub.published(), 1)
	assert.Equal(t, "C1", pub.published()[0].ConsultantID)
}

func TestCoordinator_InvalidOverrideIsRejected(t *testing.T) {
	c, store, pub := setupLifecycle(t)
	_, _, err := c.CreateRoom(context.Background(), "app-1")
	require.NoError(t, err)

	_, err = c.Handle(context.Background(), ByRoom("room-1"), PriorityOverridden{ActorID: "S", Priority: "sky-high"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidPriority, apperrors.AsStandardError(err).Code)

	room, _ := store.GetRoom(context.Background(), ByRoom("room-1"))
	assert.Equal(t, models.PriorityMedium, room.Priority)
	assert.Empty(t, pub.published())
}

func TestCoordinator_StoreFailureIsClassified(t *testing.T) {
	c := NewCoordinator(failingRooms{err: errors.New("boom")}, testPolicy, nil, logger.NewTestLogger(t))

	_, err := c.Handle(context.Background(), ByRoom("room-1"), MessagePosted{SenderID: "u"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.AsStandardError(err).Code)
}

type failingRooms struct{ err error }

func (f failingRooms) InsertRoom(context.Context, *models.WorkflowRoom) error { return f.err }
func (f failingRooms) GetRoom(context.Context, RoomRef) (*models.WorkflowRoom, error) {
	return nil, f.err
}
func (f failingRooms) UpdateRoom(context.Context, RoomRef, func(*models.WorkflowRoom) error) (*models.WorkflowRoom, error) {
	return nil, f.err
}
