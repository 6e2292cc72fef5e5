package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// maxSNSSubject is the longest subject SNS accepts for email endpoints.
const maxSNSSubject = 100

// SNSAPI is the subset of the SNS client used for publishing.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes to per-user topics whose ARNs share a prefix such as
// "arn:aws:sns:us-east-1:123456789012:".
type SNS struct {
	api       SNSAPI
	arnPrefix string
}

// NewSNS creates an SNS transport. It returns nil when no ARN prefix is configured.
func NewSNS(api SNSAPI, arnPrefix string) *SNS {
	if arnPrefix == "" {
		return nil
	}
	return &SNS{api: api, arnPrefix: arnPrefix}
}

// Name returns the transport name.
func (s *SNS) Name() string { return "sns" }

// Publish sends a per-protocol message so email and SMS subscribers get their own text.
func (s *SNS) Publish(ctx context.Context, topic string, p *Payload) error {
	message, err := json.Marshal(map[string]string{
		"default": p.Default,
		"email":   p.Email,
		"sms":     p.SMS,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SNS message: %w", err)
	}

	out, err := s.api.Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(s.arnPrefix + topic),
		Message:          aws.String(string(message)),
		MessageStructure: aws.String("json"),
		Subject:          aws.String(truncate(p.Subject, maxSNSSubject)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS topic %s: %w", topic, err)
	}

	slog.Info("Published notification to SNS",
		"topic", topic,
		"message_id", aws.ToString(out.MessageId),
		"alert_id", p.AlertID,
	)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
