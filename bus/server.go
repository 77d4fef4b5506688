package bus

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler turns a raw command payload into a serialized reply and the
// caller's reply routing key. An empty routing key means no reply is wanted.
// command.Dispatcher satisfies this.
type Handler interface {
	HandleRaw(ctx context.Context, payload []byte) ([]byte, string)
}

// Server consumes the durable command queue and serializes every command
// through the handler: one command is handled, replied, and acknowledged
// before the next is dequeued. This single-consumer design is what makes the
// ledger's read-modify-write of the baseline safe without locking.
type Server struct {
	bus     *Bus
	handler Handler
}

// NewServer creates a command server over the bus.
func NewServer(b *Bus, h Handler) *Server {
	return &Server{bus: b, handler: h}
}

// Run declares and binds the command queue, then consumes it until ctx is
// canceled or the broker closes the channel.
//
// Acknowledgment discipline: a delivery is acked only after the handler has
// produced a reply and the reply, if requested, has been published. A failed
// reply publish is logged and does not block the ack, so commands are
// delivered at least once and replies at most once.
func (s *Server) Run(ctx context.Context) error {
	ch, err := s.bus.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(prefetchCount, prefetchSize, false); err != nil {
		return fmt.Errorf("setting prefetch attributes: %w", err)
	}

	_, err = ch.QueueDeclare(
		CommandQueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring command queue: %w", err)
	}

	err = ch.QueueBind(CommandQueueName, CommandRoutingKey, ExchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("binding command queue: %w", err)
	}

	deliveries, err := ch.Consume(
		CommandQueueName, // queue
		"gridbill",       // consumer
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}

	s.bus.logger.Info("command server started",
		"queue", CommandQueueName,
		"routing_key", CommandRoutingKey,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("command channel closed by broker")
			}
			s.handle(ctx, ch, d)
		}
	}
}

func (s *Server) handle(ctx context.Context, ch *amqp.Channel, d amqp.Delivery) {
	reply, routingKey := s.handler.HandleRaw(ctx, d.Body)

	if routingKey != "" {
		err := ch.PublishWithContext(ctx,
			ExchangeName, // exchange
			routingKey,   // routing key
			false,        // mandatory
			false,        // immediate
			amqp.Publishing{
				ContentType: "application/json",
				Body:        reply,
				Timestamp:   time.Now(),
			},
		)
		if err != nil {
			// Best-effort reply: the command itself is still acked.
			s.bus.logger.Error("reply publish failed",
				"routing_key", routingKey,
				"error", err,
			)
		}
	}

	if err := d.Ack(false); err != nil {
		s.bus.logger.Error("ack failed", "error", err)
	}
}
