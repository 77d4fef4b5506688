package gridbill

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/meter"
	"github.com/xraph/gridbill/plugin"
	"github.com/xraph/gridbill/store"
	"github.com/xraph/gridbill/tariff"
	"github.com/xraph/gridbill/types"
)

// Default consumption increments substituted when a meter counter rolls back
// below the baseline. A negative delta would price a negative bill, so the
// engine charges a fixed default consumption and flags the reading for audit.
const (
	DefaultDayIncrement   = 100.0
	DefaultNightIncrement = 80.0
)

// Engine is the billing engine. It owns every write path into the ledger:
// meter registration, the tariff history, and the priced reading log.
//
// Reading inserts are a read-modify-write of the baseline slot and carry no
// transaction; correctness relies on commands being applied sequentially by a
// single consumer. Scale-out would need a compare-and-swap on the slot.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Rollback correction increments
	dayIncrement   float64
	nightIncrement float64
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		dayIncrement:   DefaultDayIncrement,
		nightIncrement: DefaultNightIncrement,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCorrectionIncrements overrides the default consumption charged for a
// rolled-back counter.
func WithCorrectionIncrements(day, night float64) Option {
	return func(e *Engine) {
		e.dayIncrement = day
		e.nightIncrement = night
	}
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("engine started",
		"day_increment", e.dayIncrement,
		"night_increment", e.nightIncrement,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Meter Management
// ──────────────────────────────────────────────────

// RegisterMeter registers a meter id. Returns true if the meter was newly
// created and false if the id was already registered; a duplicate is a
// reportable negative result, not an error.
func (e *Engine) RegisterMeter(ctx context.Context, meterID int64) (bool, error) {
	if meterID < 0 {
		return false, ErrInvalidMeterID
	}

	created, err := e.store.RegisterMeter(ctx, meterID)
	if err != nil {
		return false, err
	}

	if created {
		e.logger.Info("meter registered", "meter_id", meterID)
		e.plugins.EmitMeterRegistered(ctx, meterID)
	}

	return created, nil
}

// ──────────────────────────────────────────────────
// Tariff Management
// ──────────────────────────────────────────────────

// RecordTariff appends a new tariff version to the history. Both rates must
// be strictly positive. When activate is true the new version also becomes
// the current tariff.
func (e *Engine) RecordTariff(ctx context.Context, dayRate, nightRate float64, activate bool) (*tariff.Version, error) {
	if dayRate <= 0 {
		return nil, ErrInvalidDayTariff
	}
	if nightRate <= 0 {
		return nil, ErrInvalidNightTariff
	}

	v := &tariff.Version{
		Entity:    types.NewEntity(),
		ID:        id.NewTariffID(),
		DayRate:   dayRate,
		NightRate: nightRate,
	}

	if err := e.store.AppendTariff(ctx, v); err != nil {
		return nil, err
	}

	e.logger.Info("tariff recorded",
		"tariff_id", v.ID,
		"day_rate", dayRate,
		"night_rate", nightRate,
	)
	e.plugins.EmitTariffRecorded(ctx, v)

	if activate {
		if err := e.activate(ctx, v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// ActivateTariff makes the given tariff version the current one. A malformed
// or unknown id is not an error: the result is false and nothing changes.
func (e *Engine) ActivateTariff(ctx context.Context, tariffID string) (bool, error) {
	parsed, err := id.ParseTariffID(tariffID)
	if err != nil {
		return false, nil
	}

	v, err := e.store.GetTariff(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrTariffNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := e.activate(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}

// activate copies the version into the current-tariff slot. The slot holds a
// full copy, so later edits to history can never change already-activated
// state.
func (e *Engine) activate(ctx context.Context, v *tariff.Version) error {
	if err := e.store.SetCurrentTariff(ctx, v); err != nil {
		return err
	}

	e.logger.Info("tariff activated", "tariff_id", v.ID)
	e.plugins.EmitTariffActivated(ctx, v)
	return nil
}

// CurrentTariff returns the currently active tariff version.
func (e *Engine) CurrentTariff(ctx context.Context) (*tariff.Version, error) {
	return e.store.CurrentTariff(ctx)
}

// ──────────────────────────────────────────────────
// Reading Ingestion
// ──────────────────────────────────────────────────

// ReadingResult is the outcome of a successful RecordReading call.
type ReadingResult struct {
	Cost      float64
	Corrected bool
	Reading   *meter.Reading
}

// RecordReading validates, prices, and appends a reading, then advances the
// baseline. Preconditions, in order: all numeric fields non-negative, meter
// registered, current tariff set.
//
// Pricing is by delta against the baseline (the last accepted reading,
// system-wide). A counter below its baseline is treated as rolled back or
// tampered: the stored value becomes baseline plus the configured increment,
// the delta becomes that increment, and the reading is flagged corrected.
// Corrected is a soft-fail signal; the write still succeeds.
func (e *Engine) RecordReading(ctx context.Context, meterID int64, day, night float64) (*ReadingResult, error) {
	if meterID < 0 || day < 0 || night < 0 {
		return nil, ErrNegativeValue
	}

	known, err := e.store.HasMeter(ctx, meterID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrMeterNotFound
	}

	current, err := e.store.CurrentTariff(ctx)
	if err != nil {
		return nil, err
	}

	prev, err := e.store.LastReading(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var (
		cost      float64
		corrected bool
	)

	if prev == nil {
		// First-ever reading: priced from zero, never corrected.
		cost = current.Price(day, night)
	} else {
		dayDelta := day - prev.Day
		if dayDelta < 0 {
			day = prev.Day + e.dayIncrement
			dayDelta = e.dayIncrement
			corrected = true
		}

		nightDelta := night - prev.Night
		if nightDelta < 0 {
			night = prev.Night + e.nightIncrement
			nightDelta = e.nightIncrement
			corrected = true
		}

		cost = current.Price(dayDelta, nightDelta)
	}

	r := &meter.Reading{
		ID:        id.NewReadingID(),
		MeterID:   meterID,
		Day:       day,
		Night:     night,
		Timestamp: time.Now().UTC(),
		Tariff:    *current,
		Cost:      cost,
		Corrected: corrected,
	}

	if err := e.store.AppendReading(ctx, r); err != nil {
		return nil, err
	}
	if err := e.store.SetLastReading(ctx, r); err != nil {
		return nil, err
	}

	if corrected {
		e.logger.Warn("reading corrected",
			"meter_id", meterID,
			"day", r.Day,
			"night", r.Night,
			"cost", cost,
		)
		e.plugins.EmitReadingCorrected(ctx, r)
	} else {
		e.logger.Debug("reading recorded",
			"meter_id", meterID,
			"cost", cost,
		)
	}
	e.plugins.EmitReadingRecorded(ctx, r)

	return &ReadingResult{
		Cost:      cost,
		Corrected: corrected,
		Reading:   r,
	}, nil
}
