// Package kafka publishes flush events to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/eventstream"
)

var (
	ErrMissingBrokers = errors.New("kafka publisher requires at least one broker")
	ErrMissingTopic   = errors.New("kafka publisher requires a topic")
)

// messageWriter is the subset of *kafkago.Writer the publisher depends on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config is the kafka publisher configuration.
type Config struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration

	Logger *zap.Logger
}

// Publisher writes each flush event as one Kafka message keyed by destination,
// so events for the same file land on the same partition in order.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrMissingBrokers
	}
	if c.Topic == "" {
		return nil, ErrMissingTopic
	}

	batchTimeout := c.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
	if c.ClientID != "" {
		w.Transport = &kafkago.Transport{ClientID: c.ClientID}
	}

	return newPublisher(w, c.Topic, c.Logger), nil
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// PublishFlush encodes the event as JSON and writes it to the topic.
func (p *Publisher) PublishFlush(ctx context.Context, event *eventstream.GroupFlushedEvent) error {
	if event == nil {
		return eventstream.ErrNilFlushEvent
	}

	msg, err := encodeMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", event.EventID, p.topic, err)
	}

	p.logger.Debug("flush event published",
		zap.String("topic", p.topic),
		zap.String("event_id", event.EventID),
		zap.String("destination", event.Group.Destination),
		zap.Int("count", event.Count),
	)
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encodeMessage(event *eventstream.GroupFlushedEvent) (kafkago.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encoding flush event: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(event.Group.Destination),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}, nil
}
