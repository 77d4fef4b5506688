package audithook_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/gridbill"
	audithook "github.com/xraph/gridbill/audit_hook"
	"github.com/xraph/gridbill/store/memory"
)

type capture struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (c *capture) record(_ context.Context, event *audithook.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capture) find(action string) *audithook.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.Action == action {
			return e
		}
	}
	return nil
}

func TestAuditTrail(t *testing.T) {
	cap := &capture{}
	e := gridbill.New(memory.New(),
		gridbill.WithPlugin(audithook.New(audithook.RecorderFunc(cap.record))),
	)

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	if _, err := e.RegisterMeter(ctx, 1); err != nil {
		t.Fatalf("RegisterMeter: %v", err)
	}
	if _, err := e.RecordTariff(ctx, 1.0, 0.5, true); err != nil {
		t.Fatalf("RecordTariff: %v", err)
	}
	if _, err := e.RecordReading(ctx, 1, 10.0, 5.0); err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	if _, err := e.RecordReading(ctx, 1, 9.0, 6.0); err != nil {
		t.Fatalf("rollback reading: %v", err)
	}

	if ev := cap.find(audithook.ActionMeterRegistered); ev == nil {
		t.Error("missing meter.registered event")
	} else if ev.ResourceID != "1" {
		t.Errorf("meter.registered resource id: got %q, want %q", ev.ResourceID, "1")
	}

	if ev := cap.find(audithook.ActionTariffRecorded); ev == nil {
		t.Error("missing tariff.recorded event")
	}
	if ev := cap.find(audithook.ActionTariffActivated); ev == nil {
		t.Error("missing tariff.activated event")
	}

	if ev := cap.find(audithook.ActionReadingRecorded); ev == nil {
		t.Error("missing reading.recorded event")
	} else if ev.Severity != audithook.SeverityInfo {
		t.Errorf("reading.recorded severity: got %q, want info", ev.Severity)
	}

	if ev := cap.find(audithook.ActionReadingCorrected); ev == nil {
		t.Error("missing reading.corrected event")
	} else {
		if ev.Severity != audithook.SeverityWarning {
			t.Errorf("reading.corrected severity: got %q, want warning", ev.Severity)
		}
		if ev.Metadata["day"] != 110.0 {
			t.Errorf("reading.corrected day: got %v, want 110.0", ev.Metadata["day"])
		}
	}
}

func TestDisabledActions(t *testing.T) {
	cap := &capture{}
	e := gridbill.New(memory.New(),
		gridbill.WithPlugin(audithook.New(
			audithook.RecorderFunc(cap.record),
			audithook.WithDisabledActions(audithook.ActionMeterRegistered),
		)),
	)

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	if _, err := e.RegisterMeter(ctx, 1); err != nil {
		t.Fatalf("RegisterMeter: %v", err)
	}
	if _, err := e.RecordTariff(ctx, 1.0, 0.5, true); err != nil {
		t.Fatalf("RecordTariff: %v", err)
	}

	if ev := cap.find(audithook.ActionMeterRegistered); ev != nil {
		t.Error("meter.registered should be disabled")
	}
	if ev := cap.find(audithook.ActionTariffRecorded); ev == nil {
		t.Error("tariff.recorded should still be audited")
	}
}
