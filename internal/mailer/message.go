// Package mailer - письма аккаунтов: шаблоны, очередь RabbitMQ и отправка по SMTP.
// API-процесс только публикует Message в очередь, доставкой занимается cmd/mailer.
package mailer

import (
	"context"
	"time"
)

// Kinds of account mail.
const (
	KindEmailConfirmation = "email_confirmation"
	KindPasswordReset     = "password_reset"
)

// Message - письмо в очереди.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher ставит письмо в очередь.
//
//go:generate mockery --name Publisher --output ../mocks --outpkg mocks --case=underscore
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Sender доставляет письмо получателю.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
