package command_test

import (
	"errors"
	"testing"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/command"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		want       command.Command
		routingKey string
	}{
		{
			"add meter",
			`{"data":{"meter_id":3},"routing_key":"cmd_abc"}`,
			command.AddMeter{MeterID: 3},
			"cmd_abc",
		},
		{
			"add reading",
			`{"data":{"meter_id":1,"day":10.5,"night":5.25},"routing_key":"cmd_def"}`,
			command.AddReading{MeterID: 1, Day: 10.5, Night: 5.25},
			"cmd_def",
		},
		{
			"add tariff",
			`{"data":{"day_tariff":1.0,"night_tariff":0.5,"set_as_current":true},"routing_key":"cmd_ghi"}`,
			command.AddTariff{DayTariff: 1.0, NightTariff: 0.5, SetAsCurrent: true},
			"cmd_ghi",
		},
		{
			"add tariff without activation flag",
			`{"data":{"day_tariff":2,"night_tariff":1}}`,
			command.AddTariff{DayTariff: 2, NightTariff: 1},
			"",
		},
		{
			"set tariff",
			`{"data":{"tariff_id":"trf_01h2xcejqtf2nbrexx3vqjhp41"},"routing_key":"cmd_jkl"}`,
			command.SetTariff{TariffID: "trf_01h2xcejqtf2nbrexx3vqjhp41"},
			"cmd_jkl",
		},
		{
			"fire and forget",
			`{"data":{"meter_id":9}}`,
			command.AddMeter{MeterID: 9},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, routingKey, err := command.Parse([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cmd != tt.want {
				t.Errorf("command: got %#v, want %#v", cmd, tt.want)
			}
			if routingKey != tt.routingKey {
				t.Errorf("routing key: got %q, want %q", routingKey, tt.routingKey)
			}
		})
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `meter 1 day 10`},
		{"empty object", `{}`},
		{"missing data", `{"routing_key":"cmd_x"}`},
		{"data not an object", `{"data":[1,2,3]}`},
		{"unknown shape", `{"data":{"frequency":50}}`},
		{"meter id wrong type", `{"data":{"meter_id":"one"}}`},
		{"fractional meter id", `{"data":{"meter_id":1.5}}`},
		{"reading missing night", `{"data":{"meter_id":1,"day":10}}`},
		{"tariff rates wrong type", `{"data":{"day_tariff":"high","night_tariff":0.5}}`},
		{"tariff id wrong type", `{"data":{"tariff_id":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := command.Parse([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected a validation error")
			}

			var verr gridbill.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("got %T (%v), want gridbill.ValidationError", err, err)
			}
		})
	}
}

// A rejected payload still surfaces the caller's routing key so the
// diagnostic can be replied.
func TestParseKeepsRoutingKeyOnRejection(t *testing.T) {
	_, routingKey, err := command.Parse([]byte(`{"data":{"frequency":50},"routing_key":"cmd_reply"}`))
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if routingKey != "cmd_reply" {
		t.Errorf("routing key: got %q, want %q", routingKey, "cmd_reply")
	}
}
