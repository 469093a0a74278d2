package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher публикует письма в durable-очередь.
type AMQPPublisher struct {
	mu        sync.Mutex // канал amqp нельзя использовать из нескольких горутин
	ch        *amqp.Channel
	queueName string
	logger    *zap.Logger
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher открывает канал и объявляет очередь queueName.
func NewAMQPPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*AMQPPublisher, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := declareQueue(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	logger.Info("Mail queue declared", zap.String("queue", queueName))
	return &AMQPPublisher{ch: ch, queueName: queueName, logger: logger.Named("MailPublisher")}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		mailPublishedTotal.WithLabelValues(msg.Kind, "error").Inc()
		p.logger.Error("Failed to publish mail", zap.String("kind", msg.Kind), zap.String("id", msg.ID), zap.Error(err))
		return fmt.Errorf("failed to publish mail: %w", err)
	}
	mailPublishedTotal.WithLabelValues(msg.Kind, "success").Inc()
	p.logger.Debug("Mail published", zap.String("kind", msg.Kind), zap.String("id", msg.ID))
	return nil
}

// Close закрывает канал; соединение принадлежит вызывающему.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue '%s': %w", name, err)
	}
	return q, nil
}
