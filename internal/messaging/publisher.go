package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ClientUpdatePublisher publishes session events for the realtime gateway.
type ClientUpdatePublisher interface {
	PublishClientUpdate(ctx context.Context, payload ClientUpdatePayload) error
}

// rabbitMQPublisher implements ClientUpdatePublisher over one queue.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQClientUpdatePublisher opens a channel and declares the
// client-updates queue. Queue parameters must match the consumer's.
func NewRabbitMQClientUpdatePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (ClientUpdatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("client update publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("client update publisher: failed to declare queue %q: %w", queueName, err)
	}
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("ClientUpdatePublisher"),
	}, nil
}

func (p *rabbitMQPublisher) PublishClientUpdate(ctx context.Context, payload ClientUpdatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client update publisher: failed to marshal payload: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish client update",
			zap.String("type", string(payload.Type)),
			zap.String("sessionID", payload.SessionID.String()),
			zap.Error(err))
		return fmt.Errorf("client update publisher: publish failed: %w", err)
	}

	p.logger.Debug("Client update published",
		zap.String("type", string(payload.Type)),
		zap.String("sessionID", payload.SessionID.String()))
	return nil
}

// NopPublisher discards updates; used in tests and when RabbitMQ is not
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishClientUpdate(context.Context, ClientUpdatePayload) error { return nil }
