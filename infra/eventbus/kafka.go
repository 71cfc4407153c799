package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID     string
	TopicPrefix string
}

// KafkaEventBus publishes one topic per event type and consumes each
// registered type through a group reader. Messages whose handlers fail are
// copied to a dead-letter topic and committed.
type KafkaEventBus struct {
	brokers   []string
	writer    *kafka.Writer
	dialer    *kafka.Dialer
	factories map[events.EventType]func() events.Event
	config    KafkaEventBusConfig
	logger    *slog.Logger

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex
	readers     map[events.EventType]*kafka.Reader
	readersMtx  sync.Mutex
	topics      map[string]struct{}
	topicsMtx   sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus and checks the first broker.
func NewWithKafka(brokers []string, config KafkaEventBusConfig, logger *slog.Logger) (*KafkaEventBus, error) {
	parsed := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			parsed = append(parsed, b)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config.GroupID == "" {
		config.GroupID = "treasury"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = "treasury"
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers: parsed,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(parsed...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
		},
		dialer:    dialer,
		factories: events.Factories(),
		config:    config,
		logger:    logger.With("bus", "kafka"),
		handlers:  make(map[events.EventType][]eventbus.HandlerFunc),
		readers:   make(map[events.EventType]*kafka.Reader),
		topics:    make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", parsed[0])
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	bus.logger.Info("Kafka event bus initialized", "group_id", config.GroupID, "brokers", parsed)
	return bus, nil
}

// Emit publishes an event to its topic, keyed by event type.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	topic := topicNameFor(b.config.TopicPrefix, event.Type())
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.Type()),
		Value: envBytes,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Register registers an event handler for a specific event type.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, exists := b.readers[eventType]; exists {
		return
	}
	topic := topicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("kafka ensure topic error", "error", err, "event_type", eventType)
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := b.process(eventType, msg); err != nil {
			b.logger.Error("kafka message processing failed; will retry",
				"error", err, "partition", msg.Partition, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "offset", msg.Offset)
		}
	}
}

// process returns an error only when the message must be redelivered.
func (b *KafkaEventBus) process(eventType events.EventType, msg kafka.Message) error {
	evt, err := decodeEnvelope(msg.Value, b.factories)
	if err != nil {
		b.logger.Error("undecodable message", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
	b.handlersMtx.RUnlock()

	if executeHandlers(b.ctx, b.logger, evt, handlers, fmt.Sprintf("%d", msg.Offset)) {
		return nil
	}
	return b.publishToDLQ(eventType, msg.Value)
}

func (b *KafkaEventBus) publishToDLQ(eventType events.EventType, raw []byte) error {
	dlqTopic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, dlqTopic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{
		Topic: dlqTopic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", dlqTopic)
	return nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

// Close stops the consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
