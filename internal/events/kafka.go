package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/smallbiznis/breakeven/pkg/telemetry/correlation"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes one message per event keyed by owner so an owner's
// events stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		now: time.Now,
	}
}

func (s *KafkaSink) Emit(ctx context.Context, event Event) error {
	if event.CorrelationID != "" {
		ctx = correlation.ContextWithCorrelationID(ctx, event.CorrelationID)
	}
	md := correlation.Metadata(ctx, s.now())
	event.CorrelationID = md["correlation_id"]
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	headers := make([]kafka.Header, 0, len(md)+1)
	headers = append(headers, kafka.Header{Key: "type", Value: []byte(event.Type)})
	for k, v := range md {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.OwnerID),
		Value:   body,
		Headers: headers,
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
