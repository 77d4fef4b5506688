package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/meter"
	"github.com/xraph/gridbill/tariff"
	"github.com/xraph/gridbill/types"
)

// ==================== Meter models ====================

type meterModel struct {
	grove.BaseModel `grove:"table:meters"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	MeterID   int64     `grove:"meter_id"   bson:"meter_id"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toMeterModel(m *meter.Meter) *meterModel {
	return &meterModel{
		ID:        m.ID.String(),
		MeterID:   m.MeterID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ==================== Tariff models ====================

type tariffModel struct {
	grove.BaseModel `grove:"table:tariff_history"`

	ID        string    `grove:"id,pk"        bson:"_id"`
	DayRate   float64   `grove:"day_tariff"   bson:"day_tariff"`
	NightRate float64   `grove:"night_tariff" bson:"night_tariff"`
	CreatedAt time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"   bson:"updated_at"`
}

// tariffDoc is the embedded form of a tariff version: the snapshot inside a
// reading and the payload of the current_tariff slot.
type tariffDoc struct {
	ID        string    `bson:"id"`
	DayRate   float64   `bson:"day_tariff"`
	NightRate float64   `bson:"night_tariff"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toTariffModel(v *tariff.Version) *tariffModel {
	return &tariffModel{
		ID:        v.ID.String(),
		DayRate:   v.DayRate,
		NightRate: v.NightRate,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func fromTariffModel(m *tariffModel) (*tariff.Version, error) {
	tariffID, err := id.ParseTariffID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("gridbill/mongo: parse tariff id: %w", err)
	}

	return &tariff.Version{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        tariffID,
		DayRate:   m.DayRate,
		NightRate: m.NightRate,
	}, nil
}

func toTariffDoc(v *tariff.Version) tariffDoc {
	return tariffDoc{
		ID:        v.ID.String(),
		DayRate:   v.DayRate,
		NightRate: v.NightRate,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func fromTariffDoc(d tariffDoc) (tariff.Version, error) {
	tariffID, err := id.ParseTariffID(d.ID)
	if err != nil {
		return tariff.Version{}, fmt.Errorf("gridbill/mongo: parse tariff id: %w", err)
	}

	return tariff.Version{
		Entity: types.Entity{
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		ID:        tariffID,
		DayRate:   d.DayRate,
		NightRate: d.NightRate,
	}, nil
}

// ==================== Reading models ====================

type readingModel struct {
	grove.BaseModel `grove:"table:meters_data"`

	ID        string    `grove:"id,pk"     bson:"_id"`
	MeterID   int64     `grove:"meter_id"  bson:"meter_id"`
	Day       float64   `grove:"day"       bson:"day"`
	Night     float64   `grove:"night"     bson:"night"`
	Timestamp time.Time `grove:"date_time" bson:"date_time"`
	Tariff    tariffDoc `grove:"tariff"    bson:"tariff"`
	Cost      float64   `grove:"cost"      bson:"cost"`
	Corrected bool      `grove:"corrected" bson:"corrected"`
}

// readingDoc is the embedded form of a reading, the payload of the
// last_meters_data slot.
type readingDoc struct {
	ID        string    `bson:"id"`
	MeterID   int64     `bson:"meter_id"`
	Day       float64   `bson:"day"`
	Night     float64   `bson:"night"`
	Timestamp time.Time `bson:"date_time"`
	Tariff    tariffDoc `bson:"tariff"`
	Cost      float64   `bson:"cost"`
	Corrected bool      `bson:"corrected"`
}

func toReadingModel(r *meter.Reading) *readingModel {
	return &readingModel{
		ID:        r.ID.String(),
		MeterID:   r.MeterID,
		Day:       r.Day,
		Night:     r.Night,
		Timestamp: r.Timestamp,
		Tariff:    toTariffDoc(&r.Tariff),
		Cost:      r.Cost,
		Corrected: r.Corrected,
	}
}

func toReadingDoc(r *meter.Reading) readingDoc {
	return readingDoc{
		ID:        r.ID.String(),
		MeterID:   r.MeterID,
		Day:       r.Day,
		Night:     r.Night,
		Timestamp: r.Timestamp,
		Tariff:    toTariffDoc(&r.Tariff),
		Cost:      r.Cost,
		Corrected: r.Corrected,
	}
}

func fromReadingDoc(d readingDoc) (*meter.Reading, error) {
	readingID, err := id.ParseReadingID(d.ID)
	if err != nil {
		return nil, fmt.Errorf("gridbill/mongo: parse reading id: %w", err)
	}

	snapshot, err := fromTariffDoc(d.Tariff)
	if err != nil {
		return nil, err
	}

	return &meter.Reading{
		ID:        readingID,
		MeterID:   d.MeterID,
		Day:       d.Day,
		Night:     d.Night,
		Timestamp: d.Timestamp,
		Tariff:    snapshot,
		Cost:      d.Cost,
		Corrected: d.Corrected,
	}, nil
}

// ==================== Slot models ====================

// Slot documents live in general_data as {_id: <key>, data: <payload>}.

type currentTariffSlotModel struct {
	grove.BaseModel `grove:"table:general_data"`

	Key  string    `grove:"id,pk" bson:"_id"`
	Data tariffDoc `grove:"data"  bson:"data"`
}

type lastReadingSlotModel struct {
	grove.BaseModel `grove:"table:general_data"`

	Key  string     `grove:"id,pk" bson:"_id"`
	Data readingDoc `grove:"data"  bson:"data"`
}
