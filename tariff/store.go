package tariff

import (
	"context"

	"github.com/xraph/gridbill/id"
)

// Store is the storage contract for the tariff history.
type Store interface {
	AppendTariff(ctx context.Context, v *Version) error
	GetTariff(ctx context.Context, tariffID id.TariffID) (*Version, error)

	// Current-tariff slot. SetCurrentTariff stores a full copy of the
	// version, not a reference into the history.
	CurrentTariff(ctx context.Context) (*Version, error)
	SetCurrentTariff(ctx context.Context, v *Version) error
}
