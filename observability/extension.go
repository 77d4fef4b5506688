// Package observability provides a metrics extension for Gridbill that
// records lifecycle event counts.
package observability

import (
	"context"
	"time"

	"github.com/xraph/gridbill/meter"
	"github.com/xraph/gridbill/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnMeterRegistered  = (*MetricsExtension)(nil)
	_ plugin.OnTariffRecorded   = (*MetricsExtension)(nil)
	_ plugin.OnTariffActivated  = (*MetricsExtension)(nil)
	_ plugin.OnReadingRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnReadingCorrected = (*MetricsExtension)(nil)
	_ plugin.OnCommandHandled   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Gridbill plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Meter metrics
	MetersRegistered Counter

	// Tariff metrics
	TariffsRecorded  Counter
	TariffsActivated Counter

	// Reading metrics
	ReadingsRecorded  Counter
	ReadingsCorrected Counter
	CostBilled        Counter

	// Command metrics
	CommandsHandled Counter
	CommandsFailed  Counter
	CommandLatency  Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		MetersRegistered: factory.Counter("gridbill.meters.registered"),

		TariffsRecorded:  factory.Counter("gridbill.tariffs.recorded"),
		TariffsActivated: factory.Counter("gridbill.tariffs.activated"),

		ReadingsRecorded:  factory.Counter("gridbill.readings.recorded"),
		ReadingsCorrected: factory.Counter("gridbill.readings.corrected"),
		CostBilled:        factory.Counter("gridbill.cost.billed"),

		CommandsHandled: factory.Counter("gridbill.commands.handled"),
		CommandsFailed:  factory.Counter("gridbill.commands.failed"),
		CommandLatency:  factory.Histogram("gridbill.commands.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "metrics" }

// OnMeterRegistered implements plugin.OnMeterRegistered.
func (m *MetricsExtension) OnMeterRegistered(_ context.Context, _ int64) error {
	m.MetersRegistered.Inc()
	return nil
}

// OnTariffRecorded implements plugin.OnTariffRecorded.
func (m *MetricsExtension) OnTariffRecorded(_ context.Context, _ interface{}) error {
	m.TariffsRecorded.Inc()
	return nil
}

// OnTariffActivated implements plugin.OnTariffActivated.
func (m *MetricsExtension) OnTariffActivated(_ context.Context, _ interface{}) error {
	m.TariffsActivated.Inc()
	return nil
}

// OnReadingRecorded implements plugin.OnReadingRecorded.
func (m *MetricsExtension) OnReadingRecorded(_ context.Context, reading interface{}) error {
	m.ReadingsRecorded.Inc()
	if r, ok := reading.(*meter.Reading); ok {
		m.CostBilled.Add(r.Cost)
	}
	return nil
}

// OnReadingCorrected implements plugin.OnReadingCorrected.
func (m *MetricsExtension) OnReadingCorrected(_ context.Context, _ interface{}) error {
	m.ReadingsCorrected.Inc()
	return nil
}

// OnCommandHandled implements plugin.OnCommandHandled.
func (m *MetricsExtension) OnCommandHandled(_ context.Context, _ string, elapsed time.Duration, cmdErr error) error {
	m.CommandsHandled.Inc()
	if cmdErr != nil {
		m.CommandsFailed.Inc()
	}
	m.CommandLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
