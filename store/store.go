// Package store defines the unified storage contract for the Gridbill ledger.
package store

import (
	"context"

	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/meter"
	"github.com/xraph/gridbill/tariff"
)

// Keys for the single-slot current-state records. Each key names one logical
// slot with upsert semantics.
const (
	KeyCurrentTariff = "current_tariff"
	KeyLastReading   = "last_meters_data"
)

// Store is the unified storage interface for the ledger: the unique meter
// registry, the append-only reading and tariff logs, and the two
// current-state slots. Instead of embedding the sub-interfaces, we explicitly
// declare all methods to avoid naming conflicts.
//
// Not-found conditions surface as the gridbill sentinel errors
// (ErrNotFound, ErrTariffNotFound, ErrTariffNotSet); everything else is a
// storage failure wrapped with the backend's package prefix.
//
// The baseline slot is deliberately system-wide, not per-meter: delta pricing
// and rollback detection run against the single last accepted reading. Keying
// the slot per meter would be a store-level change behind this same contract.
type Store interface {
	// Meter registry
	RegisterMeter(ctx context.Context, meterID int64) (bool, error)
	HasMeter(ctx context.Context, meterID int64) (bool, error)

	// Reading log + baseline slot
	AppendReading(ctx context.Context, r *meter.Reading) error
	LastReading(ctx context.Context) (*meter.Reading, error)
	SetLastReading(ctx context.Context, r *meter.Reading) error

	// Tariff history + current slot
	AppendTariff(ctx context.Context, v *tariff.Version) error
	GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Version, error)
	CurrentTariff(ctx context.Context) (*tariff.Version, error)
	SetCurrentTariff(ctx context.Context, v *tariff.Version) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
