package bus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/id"
)

// DefaultCallTimeout bounds how long a caller waits for a reply. The wire
// protocol itself has no retry, so a lost reply would otherwise suspend the
// caller forever.
const DefaultCallTimeout = 30 * time.Second

// Client publishes commands and waits for replies on a per-request ephemeral
// queue. Each call owns its own channel and reply queue, so concurrent
// callers never contend on the reply path.
type Client struct {
	bus     *Bus
	timeout time.Duration
}

// NewClient creates a command client over the bus.
func NewClient(b *Bus, opts ...ClientOption) *Client {
	c := &Client{
		bus:     b,
		timeout: DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout overrides the default reply timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Call publishes a command and blocks until its reply arrives. The reply
// queue is exclusive, auto-deleting, and bound under a fresh correlation id
// that travels inside the command as the reply routing key; it is torn down
// as soon as the first message arrives. Returns gridbill.ErrTimeout when
// neither the reply nor a broker error arrives in time.
func (c *Client) Call(ctx context.Context, data interface{}) (json.RawMessage, error) {
	ch, err := c.bus.channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	correlationID := id.NewCommandID().String()

	q, err := ch.QueueDeclare(
		correlationID, // name
		false,         // durable
		true,          // delete when unused
		true,          // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return nil, err
	}

	err = ch.QueueBind(q.Name, correlationID, ExchangeName, false, nil)
	if err != nil {
		return nil, err
	}

	replies, err := ch.Consume(
		q.Name,        // queue
		correlationID, // consumer
		true,          // auto-ack: the first message is the whole response
		true,          // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return nil, err
	}

	if err := c.publish(ctx, ch, data, correlationID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, gridbill.ErrTimeout
		}
		return nil, ctx.Err()

	case d, ok := <-replies:
		if !ok {
			return nil, gridbill.ErrBusClosed
		}
		return d.Body, nil
	}
}

// Cast publishes a command without asking for a reply.
func (c *Client) Cast(ctx context.Context, data interface{}) error {
	ch, err := c.bus.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return c.publish(ctx, ch, data, "")
}

func (c *Client) publish(ctx context.Context, ch *amqp.Channel, data interface{}, routingKey string) error {
	envelope := struct {
		Data       interface{} `json:"data"`
		RoutingKey string      `json:"routing_key,omitempty"`
	}{Data: data, RoutingKey: routingKey}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		ExchangeName,      // exchange
		CommandRoutingKey, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}
