package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends email through Amazon SES.
type SES struct {
	api SESAPI
}

// NewSES creates an SES provider. A nil api leaves it unconfigured.
func NewSES(api SESAPI) *SES {
	return &SES{api: api}
}

// Name returns the provider name.
func (p *SES) Name() string { return "ses" }

// IsConfigured reports whether an SES client is available.
func (p *SES) IsConfigured() bool { return p.api != nil }

// Send sends req as a simple text email.
func (p *SES) Send(ctx context.Context, req *Request) error {
	if p.api == nil {
		return fmt.Errorf("SES client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("recipient is required")
	}

	out, err := p.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(req.From),
		Destination:      &types.Destination{ToAddresses: req.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(req.Body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}

	slog.Info("Email sent via SES", "message_id", aws.ToString(out.MessageId), "to", req.To)
	return nil
}
