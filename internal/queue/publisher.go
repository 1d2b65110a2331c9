package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/push"
)

type Publisher interface {
	// Publish appends an event and returns the Redis message id.
	Publish(ctx context.Context, stream string, event PushEvent) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewPublisher(client *redis.Client, log logrus.FieldLogger) *RedisPublisher {
	return &RedisPublisher{client: client, log: logger.Component(log, "Publisher")}
}

// Publish uses XADD with an auto-generated id.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event PushEvent) (string, error) {
	start := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{"stream": stream, "type": event.Type}).Error("publish failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"stream":   stream,
		"type":     event.Type,
		"msg_id":   messageID,
		"duration": time.Since(start),
	}).Debug("published")
	return messageID, nil
}

// Dispatch queues a push message for the worker pool. It satisfies
// push.Dispatcher.
func (p *RedisPublisher) Dispatch(ctx context.Context, msg push.Message) error {
	_, err := p.Publish(ctx, StreamPush, NewPushRequestedEvent(msg))
	return err
}
