// Package command parses inbound bus payloads into a closed set of typed
// commands and dispatches them to the billing engine.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xraph/gridbill"
)

// Command is one of the four operations the ledger accepts over the bus.
type Command interface {
	// Name returns the command's wire-level name, used in logs and metrics.
	Name() string
}

// AddMeter registers a meter id.
type AddMeter struct {
	MeterID int64 `json:"meter_id"`
}

func (AddMeter) Name() string { return "add_meter" }

// AddReading prices and appends a meter reading.
type AddReading struct {
	MeterID int64   `json:"meter_id"`
	Day     float64 `json:"day"`
	Night   float64 `json:"night"`
}

func (AddReading) Name() string { return "add_reading" }

// AddTariff appends a tariff version, optionally activating it.
type AddTariff struct {
	DayTariff    float64 `json:"day_tariff"`
	NightTariff  float64 `json:"night_tariff"`
	SetAsCurrent bool    `json:"set_as_current"`
}

func (AddTariff) Name() string { return "add_tariff" }

// SetTariff activates an existing tariff version by id.
type SetTariff struct {
	TariffID string `json:"tariff_id"`
}

func (SetTariff) Name() string { return "set_tariff" }

// Envelope is the outer bus payload: the command body plus the caller's
// reply routing key. An empty routing key means fire-and-forget.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	RoutingKey string          `json:"routing_key"`
}

// Parse validates a raw bus payload and returns the typed command plus the
// caller's reply routing key. Malformed input fails with a
// gridbill.ValidationError carrying the structural diagnostic; it never
// reaches the engine.
func Parse(payload []byte) (Command, string, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", gridbill.ValidationError{
			Field:   "envelope",
			Message: fmt.Sprintf("malformed payload: %v", err),
		}
	}

	if len(env.Data) == 0 {
		return nil, env.RoutingKey, gridbill.ValidationError{
			Field:   "data",
			Message: "missing command body",
		}
	}

	cmd, err := parseData(env.Data)
	if err != nil {
		return nil, env.RoutingKey, err
	}
	return cmd, env.RoutingKey, nil
}

// parseData discriminates the four command shapes by field presence, then
// decodes the body strictly into the matching type.
func parseData(data json.RawMessage) (Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, gridbill.ValidationError{
			Field:   "data",
			Message: fmt.Sprintf("command body is not an object: %v", err),
		}
	}

	has := func(name string) bool {
		_, ok := fields[name]
		return ok
	}

	switch {
	case has("day") && has("night") && has("meter_id"):
		var cmd AddReading
		if err := decodeStrict(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil

	case has("day_tariff") && has("night_tariff"):
		var cmd AddTariff
		if err := decodeStrict(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil

	case has("tariff_id"):
		var cmd SetTariff
		if err := decodeStrict(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil

	case has("meter_id"):
		var cmd AddMeter
		if err := decodeStrict(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil

	default:
		return nil, gridbill.ValidationError{
			Field:   "data",
			Message: "unknown command shape",
		}
	}
}

// decodeStrict decodes into the concrete command type, rejecting unknown
// fields and wrong value types.
func decodeStrict(data json.RawMessage, out Command) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		return gridbill.ValidationError{
			Field:   out.Name(),
			Message: fmt.Sprintf("invalid command body: %v", err),
		}
	}
	return nil
}
