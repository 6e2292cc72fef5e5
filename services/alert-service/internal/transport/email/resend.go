package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendAPI is the subset of the Resend emails service used for sending.
type ResendAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends email through the Resend API.
type Resend struct {
	api ResendAPI
}

// NewResend creates a Resend provider from an API key. An empty key leaves it unconfigured.
func NewResend(apiKey string) *Resend {
	if apiKey == "" {
		return &Resend{}
	}
	return &Resend{api: resend.NewClient(apiKey).Emails}
}

// NewResendWithAPI creates a Resend provider over an existing emails service.
func NewResendWithAPI(api ResendAPI) *Resend {
	return &Resend{api: api}
}

// Name returns the provider name.
func (p *Resend) Name() string { return "resend" }

// IsConfigured reports whether an API key was provided.
func (p *Resend) IsConfigured() bool { return p.api != nil }

// Send sends req as a text email.
func (p *Resend) Send(ctx context.Context, req *Request) error {
	if p.api == nil {
		return fmt.Errorf("Resend client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := p.api.Send(&resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Body,
	})
	if err != nil {
		return fmt.Errorf("Resend send failed: %w", err)
	}

	slog.Info("Email sent via Resend", "email_id", res.Id, "to", req.To)
	return nil
}
