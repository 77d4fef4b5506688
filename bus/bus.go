// Package bus implements the command channel over AMQP: a durable queue for
// inbound commands and ephemeral, per-request reply queues keyed by a unique
// routing key, all bound to one direct exchange.
package bus

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Well-known names on the broker.
const (
	ExchangeName      = "electrical_bills"
	CommandQueueName  = "electrical_bills_updates"
	CommandRoutingKey = "electrical.bills.updates"
)

const (
	prefetchCount = 1 // one command in flight: commands serialize on the consumer
	prefetchSize  = 0 // disabled prefetch size
)

// Config holds the broker connection settings.
type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"server"`
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Server.Host == "":
		return fmt.Errorf("Server.Host must be provided")
	case cfg.Server.Port == 0:
		return fmt.Errorf("Server.Port must be provided")
	default:
		return nil
	}
}

// URL renders the AMQP connection string.
func (cfg *Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.Server.Username,
		cfg.Server.Password,
		cfg.Server.Host,
		cfg.Server.Port,
	)
}

// Bus is a message bus based on the AMQP protocol. It uses RabbitMQ as the
// distributed system for publishing and consuming messages.
type Bus struct {
	cfg    Config
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

// New connects to the broker and declares the shared direct exchange.
func New(cfg Config, opts ...BusOption) (*Bus, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &Bus{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	// Close whatever half of the connection came up if setup fails partway.
	if err := b.setup(); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

func (b *Bus) setup() error {
	conn, err := amqp.Dial(b.cfg.URL())
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	b.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("creating channel: %w", err)
	}
	b.ch = ch

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}

	return nil
}

// channel opens a fresh channel for a caller that needs its own consumer.
func (b *Bus) channel() (*amqp.Channel, error) {
	if b.conn == nil || b.conn.IsClosed() {
		return nil, fmt.Errorf("opening channel: connection is closed")
	}
	return b.conn.Channel()
}

// Close tears down the connection and channel.
func (b *Bus) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}

	if b.conn != nil {
		_ = b.conn.Close()
	}
}
