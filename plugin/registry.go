package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onMeterRegistered  []OnMeterRegistered
	onTariffRecorded   []OnTariffRecorded
	onTariffActivated  []OnTariffActivated
	onReadingRecorded  []OnReadingRecorded
	onReadingCorrected []OnReadingCorrected
	onCommandHandled   []OnCommandHandled
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMeterRegistered); ok {
		r.onMeterRegistered = append(r.onMeterRegistered, v)
	}
	if v, ok := p.(OnTariffRecorded); ok {
		r.onTariffRecorded = append(r.onTariffRecorded, v)
	}
	if v, ok := p.(OnTariffActivated); ok {
		r.onTariffActivated = append(r.onTariffActivated, v)
	}
	if v, ok := p.(OnReadingRecorded); ok {
		r.onReadingRecorded = append(r.onReadingRecorded, v)
	}
	if v, ok := p.(OnReadingCorrected); ok {
		r.onReadingCorrected = append(r.onReadingCorrected, v)
	}
	if v, ok := p.(OnCommandHandled); ok {
		r.onCommandHandled = append(r.onCommandHandled, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnMeterRegistered)(nil)).Elem(), "OnMeterRegistered")
	checkInterface(reflect.TypeOf((*OnTariffRecorded)(nil)).Elem(), "OnTariffRecorded")
	checkInterface(reflect.TypeOf((*OnTariffActivated)(nil)).Elem(), "OnTariffActivated")
	checkInterface(reflect.TypeOf((*OnReadingRecorded)(nil)).Elem(), "OnReadingRecorded")
	checkInterface(reflect.TypeOf((*OnReadingCorrected)(nil)).Elem(), "OnReadingCorrected")
	checkInterface(reflect.TypeOf((*OnCommandHandled)(nil)).Elem(), "OnCommandHandled")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMeterRegistered emits a meter registered event.
func (r *Registry) EmitMeterRegistered(ctx context.Context, meterID int64) {
	r.mu.RLock()
	plugins := r.onMeterRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMeterRegistered(ctx, meterID)
		}); err != nil {
			r.logger.Warn("plugin OnMeterRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTariffRecorded emits a tariff recorded event.
func (r *Registry) EmitTariffRecorded(ctx context.Context, version interface{}) {
	r.mu.RLock()
	plugins := r.onTariffRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTariffRecorded(ctx, version)
		}); err != nil {
			r.logger.Warn("plugin OnTariffRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTariffActivated emits a tariff activated event.
func (r *Registry) EmitTariffActivated(ctx context.Context, version interface{}) {
	r.mu.RLock()
	plugins := r.onTariffActivated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTariffActivated(ctx, version)
		}); err != nil {
			r.logger.Warn("plugin OnTariffActivated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReadingRecorded emits a reading recorded event.
func (r *Registry) EmitReadingRecorded(ctx context.Context, reading interface{}) {
	r.mu.RLock()
	plugins := r.onReadingRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReadingRecorded(ctx, reading)
		}); err != nil {
			r.logger.Warn("plugin OnReadingRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReadingCorrected emits a reading corrected event.
func (r *Registry) EmitReadingCorrected(ctx context.Context, reading interface{}) {
	r.mu.RLock()
	plugins := r.onReadingCorrected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReadingCorrected(ctx, reading)
		}); err != nil {
			r.logger.Warn("plugin OnReadingCorrected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCommandHandled emits a command handled event.
func (r *Registry) EmitCommandHandled(ctx context.Context, command string, elapsed time.Duration, cmdErr error) {
	r.mu.RLock()
	plugins := r.onCommandHandled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCommandHandled(ctx, command, elapsed, cmdErr)
		}); err != nil {
			r.logger.Warn("plugin OnCommandHandled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
