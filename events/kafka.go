package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives ArticleIngested events.
const DefaultTopic = "worldsignal.articles"

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by article URL, so
// every event for one article lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for the given brokers and topic.
// Writes wait for all in-sync replicas.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// PublishArticleIngested writes one event.
func (p *KafkaPublisher) PublishArticleIngested(ctx context.Context, event ArticleIngested) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.URL),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeArticleIngested)},
			{Key: "category", Value: []byte(event.Category)},
			{Key: "timestamp", Value: []byte(event.IngestedAt.UTC().Format(time.RFC3339))},
		},
		Time: event.IngestedAt,
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("kafka: writing to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
