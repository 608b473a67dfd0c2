package notification

import (
	"context"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"
	"consultant-workflow/internal/models"
	"consultant-workflow/pkg/registry"

	"github.com/google/uuid"
)

// FanoutResult reports what one event produced.
type FanoutResult struct {
	Recipients []string
	Written    []models.NotificationRecord
	// Failed holds the write error per recipient.
	Failed map[string]error
}

// Fanout turns an event into one notification record per recipient. Each recipient is
// written independently; one failure does not stop the others.
type Fanout struct {
	resolver  RecipientResolver
	store     Store
	templates *registry.TemplateRegistry
	channels  []Channel
	logger    logger.Logger
	clock     func() time.Time
	newID     func() string
}

type FanoutOption func(*Fanout)

func WithChannels(channels ...Channel) FanoutOption {
	return func(f *Fanout) { f.channels = append(f.channels, channels...) }
}

func WithFanoutClock(clock func() time.Time) FanoutOption {
	return func(f *Fanout) { f.clock = clock }
}

func WithNotificationIDs(newID func() string) FanoutOption {
	return func(f *Fanout) { f.newID = newID }
}

func NewFanout(resolver RecipientResolver, store Store, templates *registry.TemplateRegistry, log logger.Logger, opts ...FanoutOption) *Fanout {
	if templates == nil {
		templates = registry.Default()
	}
	f := &Fanout{
		resolver:  resolver,
		store:     store,
		templates: templates,
		logger:    logger.ForComponent(log, "notification-fanout"),
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fanout resolves the recipients and writes their records. The error is only set when
// the participants could not be resolved at all.
func (f *Fanout) Fanout(ctx context.Context, ev Event) (*FanoutResult, error) {
	res := &FanoutResult{Failed: map[string]error{}}

	participants, err := f.resolver.Participants(ctx, ev.ApplicationID)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("resolve").Inc()
		return res, apperrors.ClassifyPersistenceError("resolve_recipients", err)
	}
	if participants == nil {
		f.logger.Warn("no participants for application", map[string]interface{}{
			"applicationId": ev.ApplicationID,
			"type":          ev.Type,
		})
		return res, nil
	}

	res.Recipients = recipients(*participants, ev.ConsultantID, ev.ActorID)
	tmpl, ok := f.templates.Lookup(ev.Type)
	if !ok {
		f.logger.Warn("no template for notification type", map[string]interface{}{"type": ev.Type})
		tmpl = registry.Template{Type: ev.Type, Title: ev.Type}
	}

	data := contextData(ev)
	for _, recipientID := range res.Recipients {
		rec := models.NotificationRecord{
			ID:              f.newID(),
			RecipientUserID: recipientID,
			Type:            ev.Type,
			Title:           registry.Render(tmpl.Title, data),
			Body:            registry.Render(tmpl.Body, data),
			ContextData:     data,
			CreatedAt:       f.clock(),
		}

		if err := f.store.Insert(ctx, &rec); err != nil {
			werr := apperrors.NewNotificationWriteFailedError(recipientID, err)
			res.Failed[recipientID] = werr
			metrics.NotificationFailures.WithLabelValues("inbox").Inc()
			f.logger.Error("notification write failed", map[string]interface{}{
				"recipientId":   recipientID,
				"applicationId": ev.ApplicationID,
				"type":          ev.Type,
				"error":         err.Error(),
			})
			continue
		}

		metrics.NotificationsWritten.WithLabelValues(ev.Type).Inc()
		res.Written = append(res.Written, rec)
		f.deliver(ctx, rec, tmpl)
	}

	f.logger.Debug("notifications fanned out", map[string]interface{}{
		"applicationId": ev.ApplicationID,
		"type":          ev.Type,
		"written":       len(res.Written),
		"failed":        len(res.Failed),
	})
	return res, nil
}

// Publish runs the fanout inline. Errors are logged, never returned.
func (f *Fanout) Publish(ctx context.Context, ev Event) {
	if _, err := f.Fanout(ctx, ev); err != nil {
		f.logger.Error("notification fanout failed", map[string]interface{}{
			"applicationId": ev.ApplicationID,
			"type":          ev.Type,
			"error":         err.Error(),
		})
	}
}

func (f *Fanout) deliver(ctx context.Context, rec models.NotificationRecord, tmpl registry.Template) {
	for _, ch := range f.channels {
		if !tmpl.Wants(ch.Name()) {
			continue
		}
		if err := ch.Deliver(ctx, rec, tmpl); err != nil {
			metrics.NotificationFailures.WithLabelValues(ch.Name()).Inc()
			f.logger.Warn("notification delivery failed", map[string]interface{}{
				"channel":        ch.Name(),
				"notificationId": rec.ID,
				"recipientId":    rec.RecipientUserID,
				"error":          err.Error(),
			})
		}
	}
}

func contextData(ev Event) map[string]interface{} {
	data := make(map[string]interface{}, len(ev.Payload)+3)
	for k, v := range ev.Payload {
		data[k] = v
	}
	data["applicationId"] = ev.ApplicationID
	if ev.RoomID != "" {
		data["roomId"] = ev.RoomID
	}
	if ev.ActorID != "" {
		data["actorId"] = ev.ActorID
	}
	return data
}
