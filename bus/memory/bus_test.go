package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/gridbill"
	busmemory "github.com/xraph/gridbill/bus/memory"
	"github.com/xraph/gridbill/command"
	storememory "github.com/xraph/gridbill/store/memory"
)

// newRPC wires an engine, dispatcher, and running in-process bus.
func newRPC(t *testing.T) *busmemory.Bus {
	t.Helper()

	e := gridbill.New(storememory.New())
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	b := busmemory.New()
	t.Cleanup(b.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx, command.NewDispatcher(e)) //nolint:errcheck // exits on test cancel

	return b
}

func call(t *testing.T, b *busmemory.Bus, data interface{}) interface{} {
	t.Helper()

	raw, err := b.Call(context.Background(), data)
	if err != nil {
		t.Fatalf("Call(%v): %v", data, err)
	}

	var reply struct {
		Response interface{} `json:"response"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		t.Fatalf("unmarshal reply %s: %v", raw, err)
	}
	return reply.Response
}

func TestCallRoundTrip(t *testing.T) {
	b := newRPC(t)

	if resp := call(t, b, map[string]interface{}{"meter_id": 1}); resp != true {
		t.Errorf("register meter: got %v, want true", resp)
	}
	if resp := call(t, b, map[string]interface{}{"meter_id": 1}); resp != false {
		t.Errorf("duplicate meter: got %v, want false", resp)
	}

	resp := call(t, b, map[string]interface{}{
		"day_tariff": 1.0, "night_tariff": 0.5, "set_as_current": true,
	})
	if s, ok := resp.(string); !ok || !strings.HasPrefix(s, "trf_") {
		t.Fatalf("add tariff: got %v, want a tariff id", resp)
	}

	if resp := call(t, b, map[string]interface{}{"meter_id": 1, "day": 10.0, "night": 5.0}); resp != nil {
		t.Errorf("clean reading: got %v, want null", resp)
	}

	resp = call(t, b, map[string]interface{}{"meter_id": 1, "day": 9.0, "night": 6.0})
	if s, ok := resp.(string); !ok || !strings.Contains(s, "corrected") {
		t.Errorf("rolled back reading: got %v, want correction warning", resp)
	}
}

// Concurrent callers each own a reply channel; replies never cross.
func TestConcurrentCallers(t *testing.T) {
	b := newRPC(t)

	const callers = 8
	results := make(chan interface{}, callers)

	for i := 0; i < callers; i++ {
		meterID := 100 + i
		go func() {
			raw, err := b.Call(context.Background(), map[string]interface{}{"meter_id": meterID})
			if err != nil {
				results <- err
				return
			}
			var reply struct {
				Response interface{} `json:"response"`
			}
			if err := json.Unmarshal(raw, &reply); err != nil {
				results <- err
				return
			}
			results <- reply.Response
		}()
	}

	for i := 0; i < callers; i++ {
		switch v := (<-results).(type) {
		case bool:
			if !v {
				t.Error("fresh meter id registered as duplicate")
			}
		default:
			t.Errorf("caller got %v, want true", v)
		}
	}
}

func TestCallTimesOutWithoutServer(t *testing.T) {
	b := busmemory.New().WithCallTimeout(50 * time.Millisecond)
	t.Cleanup(b.Close)

	_, err := b.Call(context.Background(), map[string]interface{}{"meter_id": 1})
	if !errors.Is(err, gridbill.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

// A cast carries no routing key and gets no reply, but it still lands:
// commands are consumed in order, so the follow-up call must observe the
// cast's registration as a duplicate.
func TestCastIsFireAndForget(t *testing.T) {
	b := newRPC(t)

	if err := b.Cast(context.Background(), map[string]interface{}{"meter_id": 7}); err != nil {
		t.Fatalf("Cast: %v", err)
	}

	if resp := call(t, b, map[string]interface{}{"meter_id": 7}); resp != false {
		t.Errorf("register after cast: got %v, want false (already registered)", resp)
	}
}
