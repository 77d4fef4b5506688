// Package memory provides an in-process command bus for tests and local
// development. It mirrors the AMQP transport's semantics: a single consumer
// applies commands sequentially, and each caller waits on its own one-shot
// reply channel keyed by a fresh correlation id.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/bus"
	"github.com/xraph/gridbill/id"
)

const commandBuffer = 64

// Bus is an in-process command bus.
type Bus struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
	closed  bool

	commands chan []byte
	timeout  time.Duration
}

// New creates an in-process bus.
func New() *Bus {
	return &Bus{
		pending:  make(map[string]chan json.RawMessage),
		commands: make(chan []byte, commandBuffer),
		timeout:  bus.DefaultCallTimeout,
	}
}

// WithCallTimeout overrides the default reply timeout.
func (b *Bus) WithCallTimeout(d time.Duration) *Bus {
	b.timeout = d
	return b
}

// Run consumes commands sequentially until ctx is canceled. Replies are
// routed to the waiting caller's channel and dropped when nobody waits,
// matching the broker's best-effort reply delivery.
func (b *Bus) Run(ctx context.Context, h bus.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload := <-b.commands:
			reply, routingKey := h.HandleRaw(ctx, payload)
			if routingKey == "" {
				continue
			}

			b.mu.Lock()
			replyCh, ok := b.pending[routingKey]
			delete(b.pending, routingKey)
			b.mu.Unlock()

			if ok {
				replyCh <- reply
			}
		}
	}
}

// Call publishes a command and blocks until its reply arrives or the
// timeout elapses.
func (b *Bus) Call(ctx context.Context, data interface{}) (json.RawMessage, error) {
	correlationID := id.NewCommandID().String()
	replyCh := make(chan json.RawMessage, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, gridbill.ErrBusClosed
	}
	b.pending[correlationID] = replyCh
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, correlationID)
		b.mu.Unlock()
	}()

	if err := b.publish(data, correlationID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, gridbill.ErrTimeout
		}
		return nil, ctx.Err()

	case reply := <-replyCh:
		return reply, nil
	}
}

// Cast publishes a command without asking for a reply.
func (b *Bus) Cast(_ context.Context, data interface{}) error {
	return b.publish(data, "")
}

func (b *Bus) publish(data interface{}, routingKey string) error {
	envelope := struct {
		Data       interface{} `json:"data"`
		RoutingKey string      `json:"routing_key,omitempty"`
	}{Data: data, RoutingKey: routingKey}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gridbill.ErrBusClosed
	}

	select {
	case b.commands <- body:
		return nil
	default:
		return gridbill.ErrBusClosed
	}
}

// Close rejects further publishes. Pending callers time out.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
