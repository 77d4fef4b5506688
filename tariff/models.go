// Package tariff defines the versioned day/night rate pair used to price
// meter readings.
package tariff

import (
	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/types"
)

// Version is one immutable entry in the tariff history. Rates are per-kWh
// prices; both must be strictly positive. History is append-only: a version
// is never edited, it is superseded by activating a newer one.
type Version struct {
	types.Entity

	ID        id.TariffID `json:"id"`
	DayRate   float64     `json:"day_tariff"`
	NightRate float64     `json:"night_tariff"`
}

// Price returns the cost of the given day/night consumption deltas under
// this version.
func (v *Version) Price(dayDelta, nightDelta float64) float64 {
	return v.DayRate*dayDelta + v.NightRate*nightDelta
}
