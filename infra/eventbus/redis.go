package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes to one Redis stream. Each registered event type
// reads through its own consumer group; failed deliveries go to
// stream+"-DLQ".
type RedisEventBus struct {
	client    redis.UniversalClient
	stream    string
	factories map[events.EventType]func() events.Event
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a Redis-backed event bus and checks the connection.
func NewWithRedis(url, stream string, logger *slog.Logger) (*RedisEventBus, error) {
	if url == "" || stream == "" {
		return nil, fmt.Errorf("redis event bus: url and stream are required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	return NewWithRedisClient(client, stream, logger), nil
}

// NewWithRedisClient wraps an existing client.
func NewWithRedisClient(client redis.UniversalClient, stream string, logger *slog.Logger) *RedisEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:    client,
		stream:    stream,
		factories: events.Factories(),
		logger:    logger.With("bus", "redis", "stream", stream),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Emit publishes an event to the stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		b.logger.Error("failed to encode event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register starts a consumer for eventType.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	group := groupNameFor(b.stream, eventType)
	if err := b.client.XGroupCreateMkStream(b.ctx, b.stream, group, "$").Err(); err != nil &&
		!isBusyGroup(err) {
		b.logger.Error("failed to create consumer group", "error", err, "group", group)
		return
	}

	host, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%d", host, time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "group", group, "consumer", consumer)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, group, consumer, handler)
	}()
}

func (b *RedisEventBus) consume(eventType events.EventType, group, consumer string, handler eventbus.HandlerFunc) {
	for b.ctx.Err() == nil {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || b.ctx.Err() != nil {
				continue
			}
			b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.handleMessage(eventType, group, msg, handler)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(
	eventType events.EventType,
	group string,
	msg redis.XMessage,
	handler eventbus.HandlerFunc,
) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	evt, err := decodeEnvelope([]byte(raw), b.factories)
	if err != nil {
		b.logger.Error("undecodable message", "error", err, "msg_id", msg.ID)
		if errors.Is(err, errUnknownEventType) {
			b.pushToDLQ(msg.Values)
		}
		return
	}
	if evt.Type() != eventType {
		return
	}
	if !executeHandlers(b.ctx, b.logger, evt, []eventbus.HandlerFunc{handler}, msg.ID) {
		b.pushToDLQ(msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlqStream := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlqStream, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlqStream)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlqStream)
}

// Close stops the consumers and closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
