package transport

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/segmentio/kafka-go"
)

// FakeTransport records publishes and fails the first Failures calls with Err.
type FakeTransport struct {
	mu       sync.Mutex
	name     string
	Err      error
	Failures int
	Calls    int
	Topics   []string
}

func (f *FakeTransport) Name() string { return f.name }

func (f *FakeTransport) Publish(ctx context.Context, topic string, p *Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil && (f.Failures == 0 || f.Calls <= f.Failures) {
		return f.Err
	}
	f.Topics = append(f.Topics, topic)
	return nil
}

// FakeSNS records publish inputs.
type FakeSNS struct {
	Inputs []*sns.PublishInput
	Err    error
}

func (f *FakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.Inputs = append(f.Inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

// FakeWriter records written messages.
type FakeWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (f *FakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.Err != nil {
		return f.Err
	}
	f.Messages = append(f.Messages, msgs...)
	return nil
}

func (f *FakeWriter) Close() error {
	f.Closed = true
	return nil
}
