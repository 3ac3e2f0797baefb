// Package notify sends the post-submission confirmation to the customer
// over SES email and SNS SMS. Delivery is fire-and-forget: failures are
// logged, never surfaced to the wizard.
package notify

import (
	"context"
	"fmt"
	"time"

	"mealsub-admin/internal/common/config"
	"mealsub-admin/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const sendTimeout = 10 * time.Second

// SESService abstracts the SES client for testing.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService abstracts the SNS client for testing.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Confirmation is what the customer is told after a successful submission.
type Confirmation struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PlanName      string
	StartDate     string
	Total         float64
	IsSponsor     bool
}

type Notifier struct {
	cfg config.NotificationConfig
	ses SESService
	sns SNSService
	log logger.Logger
}

// New builds a Notifier from the AWS default credential chain. Both
// channels disabled yields a notifier that only logs.
func New(cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{
		cfg: cfg,
		log: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return n, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	n.ses = ses.NewFromConfig(awsCfg)
	n.sns = sns.NewFromConfig(awsCfg)
	return n, nil
}

// NewWithServices injects the channel clients directly (tests).
func NewWithServices(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		ses: sesClient,
		sns: snsClient,
		log: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// Confirm sends the confirmation on every enabled channel. It runs in the
// caller's goroutine but never returns an error; submission already
// succeeded by the time this is called.
func (n *Notifier) Confirm(c Confirmation) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if n.cfg.Email.Enabled && c.CustomerEmail != "" {
		if err := n.sendEmail(ctx, c); err != nil {
			n.log.Error("confirmation email failed", map[string]interface{}{
				"email": c.CustomerEmail,
				"error": err.Error(),
			})
		}
	}

	if n.cfg.SMS.Enabled && c.CustomerPhone != "" {
		if err := n.sendSMS(ctx, c); err != nil {
			n.log.Error("confirmation SMS failed", map[string]interface{}{
				"phone": c.CustomerPhone,
				"error": err.Error(),
			})
		}
	}
}

func (n *Notifier) sendEmail(ctx context.Context, c Confirmation) error {
	subject := "Your meal subscription is confirmed"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s subscription starts on %s.",
		c.CustomerName, c.PlanName, c.StartDate,
	)
	if !c.IsSponsor {
		body += fmt.Sprintf(" Total: %.2f.", c.Total)
	}

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{c.CustomerEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, c Confirmation) error {
	message := fmt.Sprintf("%s subscription confirmed, starting %s.", c.PlanName, c.StartDate)
	input := &sns.PublishInput{
		PhoneNumber: aws.String(c.CustomerPhone),
		Message:     aws.String(message),
	}
	if n.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.cfg.SMS.SenderID),
			},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}
