//go:build integration

package mailer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"novel-stella/internal/mailer"

	"github.com/docker/docker/client"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent chan mailer.Message
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent <- msg
	return nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
}

func startRabbitMQ(t *testing.T, ctx context.Context) string {
	t.Helper()
	rmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rmqContainer.Terminate(ctx) })

	url, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)
	return url
}

func TestMailQueue_PublishConsume(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()

	url := startRabbitMQ(t, ctx)
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := zap.NewNop()
	const queue = "mail_outbox_test"

	publisher, err := mailer.NewAMQPPublisher(conn, queue, logger)
	require.NoError(t, err)
	defer publisher.Close()

	sender := &recordingSender{sent: make(chan mailer.Message, 1)}
	consumer := mailer.NewConsumer(conn, queue, 2, mailer.NewProcessor(sender, logger), logger)
	done := make(chan error, 1)
	go func() { done <- consumer.Start() }()

	tpl := mailer.Templates{SubjectPrefix: "[Novel Stella] ", FrontendURL: "https://novel-stella.com"}
	msg, err := tpl.EmailConfirmation("reader@example.com", "reader", "abc", 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, msg))

	select {
	case got := <-sender.sent:
		require.Equal(t, msg.ID, got.ID)
		require.Equal(t, "reader@example.com", got.To)
		require.Contains(t, got.Text, "/confirm-email/abc")
	case <-time.After(30 * time.Second):
		t.Fatal("mail was not consumed in time")
	}

	consumer.Stop()
	require.NoError(t, <-done)
}

func TestConsumer_StartReturnsWhenConnectionDrops(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()
	url := startRabbitMQ(t, ctx)
	logger := zap.NewNop()
	const queue = "mail_outbox_drop"

	pubConn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pubConn.Close() })
	publisher, err := mailer.NewAMQPPublisher(pubConn, queue, logger)
	require.NoError(t, err)
	defer publisher.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)

	sender := &recordingSender{sent: make(chan mailer.Message, 1)}
	consumer := mailer.NewConsumer(conn, queue, 1, mailer.NewProcessor(sender, logger), logger)
	done := make(chan error, 1)
	go func() { done <- consumer.Start() }()

	// дожидаемся, что потребитель действительно подписан
	msg := mailer.Message{ID: "warmup", Kind: mailer.KindEmailConfirmation, To: "a@example.com", CreatedAt: time.Now()}
	require.NoError(t, publisher.Publish(ctx, msg))
	select {
	case <-sender.sent:
	case <-time.After(30 * time.Second):
		t.Fatal("mail was not consumed in time")
	}

	require.NoError(t, conn.Close())

	select {
	case err := <-done:
		require.True(t, errors.Is(err, mailer.ErrDeliveriesClosed), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("consumer kept blocking after the connection was closed")
	}
}
