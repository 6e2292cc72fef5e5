package main

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	kafkautil "github.com/afikmenashe/travel-alerting/pkg/kafka"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/events"
)

var (
	refreshTopic  string
	enqueueReason string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [user_id...]",
	Short: "Publish refresh requests for the alert-worker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := kafkautil.ValidateProducerParams(cfg.KafkaBrokers, refreshTopic); err != nil {
			return err
		}
		writer := kafkautil.NewWriter(kafkautil.ParseBrokers(cfg.KafkaBrokers), refreshTopic)
		defer writer.Close()

		msgs := make([]kafka.Message, 0, len(args))
		now := time.Now().UTC()
		for _, userID := range args {
			data, err := events.Encode(events.NewRefreshRequested(userID, enqueueReason, now))
			if err != nil {
				return err
			}
			msgs = append(msgs, kafka.Message{
				Key:     []byte(userID),
				Value:   data,
				Headers: []kafka.Header{{Key: "content-type", Value: []byte(events.ContentTypeProtobuf)}},
			})
		}
		if err := writer.WriteMessages(cmd.Context(), msgs...); err != nil {
			return fmt.Errorf("failed to publish refresh requests: %w", err)
		}
		fmt.Printf("Enqueued %d refresh request(s) on %s\n", len(msgs), refreshTopic)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&refreshTopic, "refresh-topic", "travel.alerts.refresh", "Kafka topic for refresh requests")
	enqueueCmd.Flags().StringVar(&enqueueReason, "reason", "manual", "Reason recorded on the request")
	rootCmd.AddCommand(enqueueCmd)
}
