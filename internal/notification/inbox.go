package notification

import (
	"context"
	"strings"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
)

// Inbox is the recipient-facing read side of the notification store.
type Inbox struct {
	store Store
	clock func() time.Time
}

func NewInbox(store Store) *Inbox {
	return &Inbox{store: store, clock: func() time.Time { return time.Now().UTC() }}
}

// List returns the user's notifications, newest first. The limit is clamped to
// [1, 100] and defaults to 20.
func (i *Inbox) List(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidEventPayloadError("list_notifications", "userId is required")
	}
	switch {
	case limit <= 0:
		limit = defaultInboxLimit
	case limit > maxInboxLimit:
		limit = maxInboxLimit
	}
	out, err := i.store.ListForRecipient(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("list_notifications", err)
	}
	return out, nil
}

// MarkRead marks one of the user's notifications read. Marking an already read
// notification keeps its original readAt.
func (i *Inbox) MarkRead(ctx context.Context, userID, notificationID string) (*models.NotificationRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(notificationID) == "" {
		return nil, apperrors.NewInvalidEventPayloadError("mark_read", "userId and notificationId are required")
	}
	rec, err := i.store.MarkRead(ctx, userID, notificationID, i.clock())
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("mark_read", err)
	}
	return rec, nil
}

func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := i.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperrors.ClassifyPersistenceError("unread_count", err)
	}
	return n, nil
}
