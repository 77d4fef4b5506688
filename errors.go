package gridbill

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("gridbill: not found")
	ErrInvalidInput = errors.New("gridbill: invalid input")

	// Meter errors
	ErrInvalidMeterID = errors.New("gridbill: meter id must not be negative")
	ErrMeterNotFound  = errors.New("gridbill: meter not found")

	// Reading errors
	ErrNegativeValue = errors.New("gridbill: negative value in reading")

	// Tariff errors
	ErrInvalidDayTariff   = errors.New("gridbill: day tariff must be greater than zero")
	ErrInvalidNightTariff = errors.New("gridbill: night tariff must be greater than zero")
	ErrTariffNotSet       = errors.New("gridbill: no current tariff is set")
	ErrTariffNotFound     = errors.New("gridbill: tariff not found")

	// RPC errors
	ErrTimeout   = errors.New("gridbill: timed out waiting for reply")
	ErrBusClosed = errors.New("gridbill: bus is closed")

	// Store errors
	ErrStoreNotReady = errors.New("gridbill: store not ready")
	ErrStoreClosed   = errors.New("gridbill: store is closed")
)

// ValidationError represents a command validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("gridbill: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMeterNotFound) ||
		errors.Is(err, ErrTariffNotFound)
}

// IsDomainRejection returns true if the error is a domain precondition
// failure: the command was well-formed but the ledger refused it. These are
// rendered to callers as reply text and never crash the consumer loop.
func IsDomainRejection(err error) bool {
	return errors.Is(err, ErrInvalidMeterID) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrMeterNotFound) ||
		errors.Is(err, ErrTariffNotSet) ||
		errors.Is(err, ErrInvalidDayTariff) ||
		errors.Is(err, ErrInvalidNightTariff)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTimeout)
}
