package notification

import (
	"context"
	"fmt"
	"html"

	"consultant-workflow/internal/models"
	"consultant-workflow/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Channel delivers a persisted notification outside the in-app inbox.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, rec models.NotificationRecord, tmpl registry.Template) error
}

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EmailChannel sends the rendered notification through SES to the recipient's address.
type EmailChannel struct {
	ses       SESService
	contacts  RecipientResolver
	fromEmail string
}

func NewEmailChannel(client SESService, contacts RecipientResolver, fromEmail string) *EmailChannel {
	return &EmailChannel{ses: client, contacts: contacts, fromEmail: fromEmail}
}

func (c *EmailChannel) Name() string { return registry.ChannelEmail }

func (c *EmailChannel) Deliver(ctx context.Context, rec models.NotificationRecord, tmpl registry.Template) error {
	contact, err := c.contacts.Contact(ctx, rec.RecipientUserID)
	if err != nil {
		return fmt.Errorf("lookup contact: %w", err)
	}
	if contact == nil || contact.Email == "" {
		// nothing to send to
		return nil
	}

	_, err = c.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{contact.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(registry.Render(tmpl.Subject(), rec.ContextData))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(rec.Body)},
				// bodies carry applicant text such as document names
				Html: &types.Content{Data: aws.String("<p>" + html.EscapeString(rec.Body) + "</p>")},
			},
		},
		Source: aws.String(c.fromEmail),
	})
	return err
}

// PushChannel publishes to an SNS topic; subscribers filter on recipientUserId.
type PushChannel struct {
	sns      SNSService
	topicARN string
}

func NewPushChannel(client SNSService, topicARN string) *PushChannel {
	return &PushChannel{sns: client, topicARN: topicARN}
}

func (c *PushChannel) Name() string { return registry.ChannelPush }

func (c *PushChannel) Deliver(ctx context.Context, rec models.NotificationRecord, _ registry.Template) error {
	_, err := c.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Subject:  aws.String(rec.Title),
		Message:  aws.String(rec.Body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"recipientUserId":  {DataType: aws.String("String"), StringValue: aws.String(rec.RecipientUserID)},
			"notificationType": {DataType: aws.String("String"), StringValue: aws.String(rec.Type)},
			"notificationId":   {DataType: aws.String("String"), StringValue: aws.String(rec.ID)},
		},
	})
	return err
}
