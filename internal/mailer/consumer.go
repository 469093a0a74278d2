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

const sendTimeout = 30 * time.Second

// ErrDeliveriesClosed возвращается из Start, когда брокер закрыл канал доставки.
var ErrDeliveriesClosed = errors.New("mail delivery channel closed")

// Consumer читает очередь писем несколькими воркерами.
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stopChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewConsumer creates a consumer; Start blocks until Stop or until the
// broker closes the delivery channel.
func NewConsumer(conn *amqp.Connection, queueName string, concurrency int, processor *Processor, logger *zap.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("MailConsumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := declareQueue(ch, c.queueName)
	if err != nil {
		return err
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"mail-consumer", // consumer tag
		false,           // auto-ack
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	deliveriesClosed := make(chan struct{})
	var closedOnce sync.Once

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Warn("Delivery channel closed")
						closedOnce.Do(func() { close(deliveriesClosed) })
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}

	var result error
	select {
	case <-c.stopChannel:
		c.logger.Info("Stopping consumer workers")
	case <-deliveriesClosed:
		result = ErrDeliveriesClosed
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("Consumer stopped", zap.Error(result))
	return result
}

// Stop может вызываться несколько раз.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}

// Acknowledger - часть amqp.Delivery, нужная обработчику.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Processor декодирует сообщение и передает его Sender.
type Processor struct {
	sender Sender
	logger *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(sender Sender, logger *zap.Logger) *Processor {
	return &Processor{sender: sender, logger: logger.Named("MailProcessor")}
}

func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	p.Handle(ctx, d.Body, d, d.DeliveryTag, d.Redelivered)
}

// Handle: битый JSON - Nack без повторной постановки. Ошибка отправки
// возвращает письмо в очередь один раз; повторная ошибка - сброс.
func (p *Processor) Handle(ctx context.Context, body []byte, ack Acknowledger, tag uint64, redelivered bool) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		p.logger.Error("Failed to decode mail message", zap.Error(err), zap.ByteString("body", body), zap.Uint64("delivery_tag", tag))
		mailDeliveredTotal.WithLabelValues("unknown", "invalid").Inc()
		if ackErr := ack.Nack(false, false); ackErr != nil {
			p.logger.Error("Nack failed", zap.Error(ackErr), zap.Uint64("delivery_tag", tag))
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := p.sender.Send(sendCtx, msg); err != nil {
		p.logger.Error("Failed to send mail",
			zap.Error(err),
			zap.String("kind", msg.Kind),
			zap.String("id", msg.ID),
			zap.Uint64("delivery_tag", tag),
			zap.Bool("redelivered", redelivered))
		status := "retry"
		if redelivered {
			status = "error"
		}
		mailDeliveredTotal.WithLabelValues(msg.Kind, status).Inc()
		if ackErr := ack.Nack(false, !redelivered); ackErr != nil {
			p.logger.Error("Nack failed", zap.Error(ackErr), zap.Uint64("delivery_tag", tag))
		}
		return
	}

	mailDeliveredTotal.WithLabelValues(msg.Kind, "success").Inc()
	if ackErr := ack.Ack(false); ackErr != nil {
		p.logger.Error("Ack failed", zap.Error(ackErr), zap.Uint64("delivery_tag", tag))
	}
	p.logger.Info("Mail sent", zap.String("kind", msg.Kind), zap.String("id", msg.ID))
}
