package app

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	kafkautil "github.com/afikmenashe/travel-alerting/pkg/kafka"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/config"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport/email"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport/retry"
)

// buildTransports creates the configured notification transports in a retrying fanout.
// awsCfg is required for sns, and for email unless Resend is configured.
func buildTransports(cfg config.Config, awsCfg *aws.Config) (*transport.Fanout, []func() error, error) {
	var (
		out     []transport.Transport
		closers []func() error
	)
	for _, name := range cfg.Transports() {
		switch name {
		case config.TransportLog:
			out = append(out, transport.Log{})
		case config.TransportSNS:
			if awsCfg == nil {
				return nil, nil, fmt.Errorf("sns transport requires AWS configuration")
			}
			out = append(out, transport.NewSNS(sns.NewFromConfig(*awsCfg), cfg.SNSTopicARNPrefix))
		case config.TransportKafka:
			if err := kafkautil.ValidateProducerParams(cfg.KafkaBrokers, cfg.NotificationsTopic); err != nil {
				return nil, nil, err
			}
			k := transport.NewKafka(kafkautil.NewWriter(kafkautil.ParseBrokers(cfg.KafkaBrokers), cfg.NotificationsTopic))
			out = append(out, k)
			closers = append(closers, k.Close)
		case config.TransportEmail:
			registry, err := emailRegistry(cfg, awsCfg)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, email.NewTransport(registry, cfg.EmailFrom))
		case config.TransportWebhook:
			out = append(out, transport.NewWebhook(cfg.WebhookURL, cfg.UpstreamTimeout))
		case config.TransportSlack:
			out = append(out, transport.NewSlack(cfg.SlackWebhookURL, cfg.UpstreamTimeout))
		default:
			return nil, nil, fmt.Errorf("unknown notification transport %q", name)
		}
	}
	return transport.NewFanout(retry.DefaultConfig(), out...), closers, nil
}

// emailRegistry uses Resend first when it has an API key, with SES as the fallback.
func emailRegistry(cfg config.Config, awsCfg *aws.Config) (*email.Registry, error) {
	registry := email.NewRegistry()
	resendProvider := email.NewResend(cfg.ResendAPIKey)
	registry.Register(resendProvider)

	var names []string
	if resendProvider.IsConfigured() {
		names = append(names, resendProvider.Name())
	}
	if awsCfg != nil {
		ses := email.NewSES(sesv2.NewFromConfig(*awsCfg))
		registry.Register(ses)
		names = append(names, ses.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("email transport requires a Resend API key or AWS configuration")
	}
	if err := registry.SetPrimary(names[0]); err != nil {
		return nil, err
	}
	if err := registry.SetFallback(names[1:]...); err != nil {
		return nil, err
	}
	return registry, nil
}
