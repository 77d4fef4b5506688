package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/gridbill"
)

// Reply is the response envelope published back to the caller. Response is
// null on plain success, a string for errors and warnings, or a bare value
// for boolean business results; callers distinguish by value.
type Reply struct {
	Response interface{} `json:"response"`
}

// Marshal serializes the reply for the wire.
func (r Reply) Marshal() []byte {
	b, err := json.Marshal(r)
	if err != nil {
		// Reply payloads are primitives; this is unreachable in practice.
		return []byte(`{"response":"internal error: reply serialization failed"}`)
	}
	return b
}

// Dispatcher maps validated commands to billing engine operations. Domain
// errors are caught here and rendered into the reply envelope; no command,
// however malformed, crashes the consumer loop.
type Dispatcher struct {
	engine *gridbill.Engine
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given engine.
func NewDispatcher(e *gridbill.Engine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine: e,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// HandleRaw parses a raw bus payload, executes it, and returns the
// serialized reply plus the caller's routing key. An empty routing key means
// the caller did not ask for a reply.
func (d *Dispatcher) HandleRaw(ctx context.Context, payload []byte) ([]byte, string) {
	cmd, routingKey, err := Parse(payload)
	if err != nil {
		d.logger.Warn("command rejected", "error", err)
		return Reply{Response: err.Error()}.Marshal(), routingKey
	}

	return d.Execute(ctx, cmd).Marshal(), routingKey
}

// Execute runs one validated command against the engine and renders the
// outcome. Exactly one ledger mutation (or zero, on domain rejection)
// happens per call.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (reply Reply) {
	start := time.Now()

	var cmdErr error
	defer func() {
		if r := recover(); r != nil {
			cmdErr = fmt.Errorf("panic: %v", r)
			d.logger.Error("command handler panicked",
				"command", cmd.Name(),
				"panic", r,
			)
			reply = Reply{Response: fmt.Sprintf("internal error handling %s", cmd.Name())}
		}
		d.engine.Plugins().EmitCommandHandled(ctx, cmd.Name(), time.Since(start), cmdErr)
	}()

	switch c := cmd.(type) {
	case AddMeter:
		created, err := d.engine.RegisterMeter(ctx, c.MeterID)
		if err != nil {
			cmdErr = err
			return Reply{Response: err.Error()}
		}
		// false reports a duplicate id, which is not an error.
		return Reply{Response: created}

	case AddReading:
		res, err := d.engine.RecordReading(ctx, c.MeterID, c.Day, c.Night)
		if err != nil {
			cmdErr = err
			return Reply{Response: err.Error()}
		}
		if res.Corrected {
			// Soft failure: the write succeeded, the caller gets a warning.
			return Reply{Response: fmt.Sprintf(
				"meter %d readings corrected to day=%g night=%g, suspected rollback",
				c.MeterID, res.Reading.Day, res.Reading.Night,
			)}
		}
		return Reply{Response: nil}

	case AddTariff:
		v, err := d.engine.RecordTariff(ctx, c.DayTariff, c.NightTariff, c.SetAsCurrent)
		if err != nil {
			cmdErr = err
			return Reply{Response: err.Error()}
		}
		return Reply{Response: v.ID.String()}

	case SetTariff:
		ok, err := d.engine.ActivateTariff(ctx, c.TariffID)
		if err != nil {
			cmdErr = err
			return Reply{Response: err.Error()}
		}
		return Reply{Response: ok}

	default:
		cmdErr = fmt.Errorf("unhandled command type %T", cmd)
		return Reply{Response: cmdErr.Error()}
	}
}
