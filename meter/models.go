// Package meter defines the meter registry and the append-only reading log.
package meter

import (
	"time"

	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/tariff"
	"github.com/xraph/gridbill/types"
)

// Meter is a registered electricity meter. Identity is the caller-assigned
// non-negative integer MeterID; the record is immutable and never deleted.
type Meter struct {
	types.Entity

	ID      id.MeterRecordID `json:"id"`
	MeterID int64            `json:"meter_id"`
}

// Reading is one priced entry in the reading log. Once written it is never
// mutated or deleted. Tariff is a snapshot of the version that priced the
// reading, copied at insert time — later tariff activations do not change it.
type Reading struct {
	ID        id.ReadingID   `json:"id"`
	MeterID   int64          `json:"meter_id"`
	Day       float64        `json:"day"`
	Night     float64        `json:"night"`
	Timestamp time.Time      `json:"date_time"`
	Tariff    tariff.Version `json:"tariff"`
	Cost      float64        `json:"cost"`
	Corrected bool           `json:"corrected"`
}
