package command_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/command"
	"github.com/xraph/gridbill/store/memory"
)

func newDispatcher(t *testing.T) *command.Dispatcher {
	t.Helper()

	e := gridbill.New(memory.New())
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	return command.NewDispatcher(e)
}

// response round-trips a raw reply payload and returns the response slot.
func response(t *testing.T, raw []byte) interface{} {
	t.Helper()

	var reply struct {
		Response interface{} `json:"response"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		t.Fatalf("unmarshal reply %s: %v", raw, err)
	}
	return reply.Response
}

func TestExecuteAddMeter(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	reply := d.Execute(ctx, command.AddMeter{MeterID: 1})
	if reply.Response != true {
		t.Errorf("first registration: got %v, want true", reply.Response)
	}

	reply = d.Execute(ctx, command.AddMeter{MeterID: 1})
	if reply.Response != false {
		t.Errorf("duplicate registration: got %v, want false", reply.Response)
	}

	reply = d.Execute(ctx, command.AddMeter{MeterID: -5})
	msg, ok := reply.Response.(string)
	if !ok || !strings.Contains(msg, "meter id") {
		t.Errorf("negative id: got %v, want meter id error text", reply.Response)
	}
}

func TestExecuteDomainRejections(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	// Errors are rendered as reply text, never raised.
	reply := d.Execute(ctx, command.AddReading{MeterID: 1, Day: 10, Night: 5})
	msg, ok := reply.Response.(string)
	if !ok || !strings.Contains(msg, "meter not found") {
		t.Errorf("unregistered meter: got %v, want meter not found text", reply.Response)
	}

	d.Execute(ctx, command.AddMeter{MeterID: 1})
	reply = d.Execute(ctx, command.AddReading{MeterID: 1, Day: 10, Night: 5})
	msg, ok = reply.Response.(string)
	if !ok || !strings.Contains(msg, "tariff") {
		t.Errorf("no tariff: got %v, want tariff error text", reply.Response)
	}

	reply = d.Execute(ctx, command.AddTariff{DayTariff: 0, NightTariff: 1})
	msg, ok = reply.Response.(string)
	if !ok || !strings.Contains(msg, "day tariff") {
		t.Errorf("zero day rate: got %v, want day tariff error text", reply.Response)
	}
}

func TestExecuteTariffLifecycle(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	reply := d.Execute(ctx, command.AddTariff{DayTariff: 1.0, NightTariff: 0.5})
	tariffID, ok := reply.Response.(string)
	if !ok || !strings.HasPrefix(tariffID, "trf_") {
		t.Fatalf("add tariff: got %v, want a tariff id", reply.Response)
	}

	reply = d.Execute(ctx, command.SetTariff{TariffID: tariffID})
	if reply.Response != true {
		t.Errorf("activate known tariff: got %v, want true", reply.Response)
	}

	reply = d.Execute(ctx, command.SetTariff{TariffID: "garbage"})
	if reply.Response != false {
		t.Errorf("activate malformed id: got %v, want false", reply.Response)
	}
}

func TestHandleRawRoundTrip(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	steps := []struct {
		name       string
		payload    string
		routingKey string
		check      func(t *testing.T, resp interface{})
	}{
		{
			"register meter",
			`{"data":{"meter_id":1},"routing_key":"cmd_a"}`,
			"cmd_a",
			func(t *testing.T, resp interface{}) {
				if resp != true {
					t.Errorf("got %v, want true", resp)
				}
			},
		},
		{
			"record and activate tariff",
			`{"data":{"day_tariff":1.0,"night_tariff":0.5,"set_as_current":true},"routing_key":"cmd_b"}`,
			"cmd_b",
			func(t *testing.T, resp interface{}) {
				if s, ok := resp.(string); !ok || !strings.HasPrefix(s, "trf_") {
					t.Errorf("got %v, want a tariff id", resp)
				}
			},
		},
		{
			"clean reading",
			`{"data":{"meter_id":1,"day":10.0,"night":5.0},"routing_key":"cmd_c"}`,
			"cmd_c",
			func(t *testing.T, resp interface{}) {
				if resp != nil {
					t.Errorf("got %v, want null", resp)
				}
			},
		},
		{
			"rolled back reading warns",
			`{"data":{"meter_id":1,"day":9.0,"night":6.0},"routing_key":"cmd_d"}`,
			"cmd_d",
			func(t *testing.T, resp interface{}) {
				if s, ok := resp.(string); !ok || !strings.Contains(s, "corrected") {
					t.Errorf("got %v, want correction warning", resp)
				}
			},
		},
		{
			"validation failure replied as text",
			`{"data":{"frequency":50},"routing_key":"cmd_e"}`,
			"cmd_e",
			func(t *testing.T, resp interface{}) {
				if s, ok := resp.(string); !ok || !strings.Contains(s, "unknown command shape") {
					t.Errorf("got %v, want validation diagnostic", resp)
				}
			},
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			raw, routingKey := d.HandleRaw(ctx, []byte(step.payload))
			if routingKey != step.routingKey {
				t.Errorf("routing key: got %q, want %q", routingKey, step.routingKey)
			}
			step.check(t, response(t, raw))
		})
	}
}

func TestHandleRawMalformedPayload(t *testing.T) {
	d := newDispatcher(t)

	raw, routingKey := d.HandleRaw(context.Background(), []byte(`not json at all`))
	if routingKey != "" {
		t.Errorf("routing key: got %q, want empty", routingKey)
	}
	if _, ok := response(t, raw).(string); !ok {
		t.Errorf("got %v, want diagnostic string", response(t, raw))
	}
}
