// Package plugin provides an extensible plugin system for Gridbill.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Meter lifecycle hooks
// ──────────────────────────────────────────────────

// OnMeterRegistered is called when a new meter is registered.
type OnMeterRegistered interface {
	Plugin
	OnMeterRegistered(ctx context.Context, meterID int64) error
}

// ──────────────────────────────────────────────────
// Tariff lifecycle hooks
// ──────────────────────────────────────────────────

// OnTariffRecorded is called when a new tariff version is appended to the
// history. The payload is a *tariff.Version.
type OnTariffRecorded interface {
	Plugin
	OnTariffRecorded(ctx context.Context, version interface{}) error
}

// OnTariffActivated is called when a tariff version becomes the current one.
// The payload is a *tariff.Version.
type OnTariffActivated interface {
	Plugin
	OnTariffActivated(ctx context.Context, version interface{}) error
}

// ──────────────────────────────────────────────────
// Reading hooks
// ──────────────────────────────────────────────────

// OnReadingRecorded is called for every accepted reading, corrected or not.
// The payload is a *meter.Reading.
type OnReadingRecorded interface {
	Plugin
	OnReadingRecorded(ctx context.Context, reading interface{}) error
}

// OnReadingCorrected is called when a reading was adjusted because at least
// one of its counters rolled back below the baseline. The payload is the
// already-corrected *meter.Reading.
type OnReadingCorrected interface {
	Plugin
	OnReadingCorrected(ctx context.Context, reading interface{}) error
}

// ──────────────────────────────────────────────────
// Command hooks
// ──────────────────────────────────────────────────

// OnCommandHandled is called after the dispatcher finishes a command,
// whether it succeeded or not. err is nil on success.
type OnCommandHandled interface {
	Plugin
	OnCommandHandled(ctx context.Context, command string, elapsed time.Duration, err error) error
}
