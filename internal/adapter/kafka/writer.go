package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/radar-composite/internal/config"
	"github.com/couchcryptid/radar-composite/internal/job"
)

// Writer publishes job completions to a Kafka topic.
// It implements pipeline.CompletionPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCompletions publishes the completions in a single WriteMessages call.
func (w *Writer) PublishCompletions(ctx context.Context, done []job.Completion) error {
	if len(done) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(done))
	for i := range done {
		msg, err := serializeToMessage(done[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write completions: %w", err)
	}
	w.logger.Debug("published completions", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage keys the message by job id and mirrors the product
// identity in headers so consumers can route without decoding.
func serializeToMessage(c job.Completion) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize completion: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(c.JobID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "product", Value: []byte(c.Product)},
			{Key: "area", Value: []byte(c.Area)},
			{Key: "contributors", Value: []byte(strconv.Itoa(c.Contributors))},
			{Key: "processed_at", Value: []byte(c.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
