// Package audithook bridges Gridbill lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/gridbill/meter"
	"github.com/xraph/gridbill/plugin"
	"github.com/xraph/gridbill/tariff"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnMeterRegistered  = (*Extension)(nil)
	_ plugin.OnTariffRecorded   = (*Extension)(nil)
	_ plugin.OnTariffActivated  = (*Extension)(nil)
	_ plugin.OnReadingRecorded  = (*Extension)(nil)
	_ plugin.OnReadingCorrected = (*Extension)(nil)
	_ plugin.OnCommandHandled   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Gridbill lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Meter lifecycle hooks
// ──────────────────────────────────────────────────

// OnMeterRegistered implements plugin.OnMeterRegistered.
func (e *Extension) OnMeterRegistered(ctx context.Context, meterID int64) error {
	return e.record(ctx, ActionMeterRegistered, SeverityInfo, OutcomeSuccess,
		ResourceMeter, strconv.FormatInt(meterID, 10), CategoryMetering, nil,
		"meter_id", meterID,
	)
}

// ──────────────────────────────────────────────────
// Tariff lifecycle hooks
// ──────────────────────────────────────────────────

// OnTariffRecorded implements plugin.OnTariffRecorded.
func (e *Extension) OnTariffRecorded(ctx context.Context, version interface{}) error {
	id, meta := tariffDetails(version)
	return e.record(ctx, ActionTariffRecorded, SeverityInfo, OutcomeSuccess,
		ResourceTariff, id, CategoryTariff, nil, meta...)
}

// OnTariffActivated implements plugin.OnTariffActivated.
func (e *Extension) OnTariffActivated(ctx context.Context, version interface{}) error {
	id, meta := tariffDetails(version)
	return e.record(ctx, ActionTariffActivated, SeverityInfo, OutcomeSuccess,
		ResourceTariff, id, CategoryTariff, nil, meta...)
}

// ──────────────────────────────────────────────────
// Reading hooks
// ──────────────────────────────────────────────────

// OnReadingRecorded implements plugin.OnReadingRecorded.
func (e *Extension) OnReadingRecorded(ctx context.Context, reading interface{}) error {
	r, ok := reading.(*meter.Reading)
	if !ok {
		return e.record(ctx, ActionReadingRecorded, SeverityInfo, OutcomeSuccess,
			ResourceReading, "", CategoryBilling, nil)
	}
	if r.Corrected {
		// The corrected hook already audits this one at warning severity.
		return nil
	}

	return e.record(ctx, ActionReadingRecorded, SeverityInfo, OutcomeSuccess,
		ResourceReading, r.ID.String(), CategoryBilling, nil,
		"meter_id", r.MeterID,
		"day", r.Day,
		"night", r.Night,
		"cost", r.Cost,
	)
}

// OnReadingCorrected implements plugin.OnReadingCorrected.
// Corrections point at possible tampering, so they are audited at warning
// severity regardless of enabled filters on the plain recorded action.
func (e *Extension) OnReadingCorrected(ctx context.Context, reading interface{}) error {
	r, ok := reading.(*meter.Reading)
	if !ok {
		return e.record(ctx, ActionReadingCorrected, SeverityWarning, OutcomePartial,
			ResourceReading, "", CategoryBilling, nil)
	}

	return e.record(ctx, ActionReadingCorrected, SeverityWarning, OutcomePartial,
		ResourceReading, r.ID.String(), CategoryBilling, nil,
		"meter_id", r.MeterID,
		"day", r.Day,
		"night", r.Night,
		"cost", r.Cost,
	)
}

// ──────────────────────────────────────────────────
// Command hooks
// ──────────────────────────────────────────────────

// OnCommandHandled implements plugin.OnCommandHandled.
func (e *Extension) OnCommandHandled(ctx context.Context, command string, elapsed time.Duration, cmdErr error) error {
	if cmdErr == nil {
		// Successful commands are already audited through their domain hooks.
		return nil
	}

	return e.record(ctx, ActionCommandFailed, SeverityError, OutcomeFailure,
		ResourceCommand, command, CategoryCommand, cmdErr,
		"command", command,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func tariffDetails(version interface{}) (string, []any) {
	v, ok := version.(*tariff.Version)
	if !ok {
		return "", nil
	}
	return v.ID.String(), []any{
		"day_tariff", v.DayRate,
		"night_tariff", v.NightRate,
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
