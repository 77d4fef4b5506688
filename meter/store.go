package meter

import "context"

// Store is the storage contract for the meter registry and reading log.
type Store interface {
	// RegisterMeter inserts the meter if absent. Returns false, without an
	// error, when the id is already registered.
	RegisterMeter(ctx context.Context, meterID int64) (bool, error)
	HasMeter(ctx context.Context, meterID int64) (bool, error)

	AppendReading(ctx context.Context, r *Reading) error

	// Baseline slot: the last accepted reading, system-wide. Absent until
	// the first reading is recorded.
	LastReading(ctx context.Context) (*Reading, error)
	SetLastReading(ctx context.Context, r *Reading) error
}
