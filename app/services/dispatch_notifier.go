package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/amirphl/tailwind-mail/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// BroadcastEvent announces that a broadcast committed pending messages
type BroadcastEvent struct {
	BroadcastID uint   `json:"broadcast_id"`
	EmailID     uint   `json:"email_id"`
	Slug        string `json:"slug"`
	Messages    int    `json:"messages"`
}

// DispatchNotifier wakes the delivery worker after a broadcast commit
type DispatchNotifier interface {
	NotifyBroadcast(ctx context.Context, event BroadcastEvent) error
	Close() error
}

// NoopDispatchNotifier is used when no dispatch channel is configured
type NoopDispatchNotifier struct{}

// NewNoopDispatchNotifier creates a notifier that does nothing
func NewNoopDispatchNotifier() DispatchNotifier {
	return &NoopDispatchNotifier{}
}

func (n *NoopDispatchNotifier) NotifyBroadcast(ctx context.Context, event BroadcastEvent) error {
	return nil
}

func (n *NoopDispatchNotifier) Close() error { return nil }

// RedisDispatchNotifier publishes events to a redis pub/sub channel
type RedisDispatchNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisDispatchNotifier creates a notifier on an existing redis client
func NewRedisDispatchNotifier(client redis.UniversalClient, channel string) DispatchNotifier {
	return &RedisDispatchNotifier{client: client, channel: channel}
}

// NotifyBroadcast publishes the event as JSON
func (n *RedisDispatchNotifier) NotifyBroadcast(ctx context.Context, event BroadcastEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish broadcast %d to redis: %w", event.BroadcastID, err)
	}
	return nil
}

func (n *RedisDispatchNotifier) Close() error {
	return n.client.Close()
}

// AMQPDispatchNotifier publishes events to a topic exchange
type AMQPDispatchNotifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// AMQP routing key for broadcast events
const BroadcastRoutingKey = "broadcast.created"

// NewAMQPDispatchNotifier dials the broker and declares a durable topic exchange
func NewAMQPDispatchNotifier(url, exchange string) (DispatchNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPDispatchNotifier{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// NotifyBroadcast publishes a persistent JSON message
func (n *AMQPDispatchNotifier) NotifyBroadcast(ctx context.Context, event BroadcastEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx, n.exchange, BroadcastRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    utils.UTCNow(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish broadcast %d to amqp: %w", event.BroadcastID, err)
	}
	return nil
}

func (n *AMQPDispatchNotifier) Close() error {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
