package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ContentTypeProtobuf tags Kafka notification records.
const ContentTypeProtobuf = "application/x-protobuf"

// MessageWriter is the subset of kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes notifications to a single Kafka topic, keyed by the alert topic so one
// user's notifications stay ordered on a partition.
type Kafka struct {
	writer MessageWriter
}

// NewKafka creates a Kafka transport over writer.
func NewKafka(writer MessageWriter) *Kafka {
	return &Kafka{writer: writer}
}

// Name returns the transport name.
func (k *Kafka) Name() string { return "kafka" }

// Publish encodes p as a protobuf Struct.
func (k *Kafka) Publish(ctx context.Context, topic string, p *Payload) error {
	value, err := EncodePayload(p)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(topic),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(ContentTypeProtobuf)},
			{Key: "alert-topic", Value: []byte(topic)},
			{Key: "priority", Value: []byte(strconv.Itoa(p.Priority))},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write notification to kafka: %w", err)
	}

	slog.Debug("Published notification to Kafka", "topic", topic, "alert_id", p.AlertID)
	return nil
}

// Close closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

// EncodePayload serializes p as a google.protobuf.Struct.
func EncodePayload(p *Payload) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"default":    p.Default,
		"email":      p.Email,
		"sms":        p.SMS,
		"subject":    p.Subject,
		"recipient":  p.Recipient,
		"user_id":    p.UserID,
		"alert_id":   p.AlertID,
		"alert_type": p.AlertType,
		"priority":   p.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build notification struct: %w", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return data, nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(data []byte) (*Payload, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	f := s.GetFields()
	return &Payload{
		Default:   f["default"].GetStringValue(),
		Email:     f["email"].GetStringValue(),
		SMS:       f["sms"].GetStringValue(),
		Subject:   f["subject"].GetStringValue(),
		Recipient: f["recipient"].GetStringValue(),
		UserID:    f["user_id"].GetStringValue(),
		AlertID:   f["alert_id"].GetStringValue(),
		AlertType: f["alert_type"].GetStringValue(),
		Priority:  int(f["priority"].GetNumberValue()),
	}, nil
}
