package audithook

// Action constants for audit events.
const (
	// Meter actions
	ActionMeterRegistered = "meter.registered"

	// Tariff actions
	ActionTariffRecorded  = "tariff.recorded"
	ActionTariffActivated = "tariff.activated"

	// Reading actions
	ActionReadingRecorded  = "reading.recorded"
	ActionReadingCorrected = "reading.corrected"

	// Command actions
	ActionCommandHandled = "command.handled"
	ActionCommandFailed  = "command.failed"
)

// Resource constants for audit events.
const (
	ResourceMeter   = "meter"
	ResourceTariff  = "tariff"
	ResourceReading = "reading"
	ResourceCommand = "command"
)

// Category constants for audit events.
const (
	CategoryBilling  = "billing"
	CategoryMetering = "metering"
	CategoryTariff   = "tariff"
	CategoryCommand  = "command"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
