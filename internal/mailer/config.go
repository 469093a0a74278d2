package mailer

import (
	"fmt"
	"net/mail"

	"github.com/ilyakaznacheev/cleanenv"
)

// WorkerConfig - настройки процесса cmd/mailer.
type WorkerConfig struct {
	RabbitMQURI       string `yaml:"rabbitmq_uri" env:"RABBITMQ_URL" env-required:"true"`
	QueueName         string `yaml:"queue_name" env:"MAIL_QUEUE_NAME" env-default:"mail_outbox"`
	WorkerConcurrency int    `yaml:"worker_concurrency" env:"MAIL_WORKER_CONCURRENCY" env-default:"4"`
	HealthCheckPort   string `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8089"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	SMTP              SMTPConfig
}

// SMTPConfig - параметры SMTP-сервера. From в формате "Novel Stella <noreply@...>".
type SMTPConfig struct {
	Host     string `yaml:"host" env:"EMAIL_HOST" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env:"EMAIL_PORT" env-default:"587"`
	Username string `yaml:"username" env:"EMAIL_HOST_USER"`
	Password string `yaml:"password" env:"EMAIL_HOST_PASSWORD"`
	From     string `yaml:"from" env:"DEFAULT_FROM_EMAIL"`
}

// FromAddress returns the bare address for MAIL FROM.
func (c SMTPConfig) FromAddress() string {
	if addr, err := mail.ParseAddress(c.From); err == nil {
		return addr.Address
	}
	return c.Username
}

// LoadWorkerConfig читает configPath, при ошибке - только переменные окружения.
func LoadWorkerConfig(configPath string) (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load mailer config: %w", err)
		}
	}
	if cfg.SMTP.From == "" && cfg.SMTP.Username != "" {
		cfg.SMTP.From = fmt.Sprintf("Novel Stella <%s>", cfg.SMTP.Username)
	}
	return &cfg, nil
}
