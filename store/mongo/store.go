// Package mongo implements the ledger store on MongoDB via Grove ORM.
//
// Collection layout:
//
//	meters         — meter registry, unique index on meter_id
//	tariff_history — append-only tariff versions
//	meters_data    — append-only priced readings
//	general_data   — single-document slots ({_id: <key>, data: <payload>})
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/meter"
	gridstore "github.com/xraph/gridbill/store"
	"github.com/xraph/gridbill/tariff"
	"github.com/xraph/gridbill/types"
)

// Collection name constants.
const (
	colMeters        = "meters"
	colTariffHistory = "tariff_history"
	colReadings      = "meters_data"
	colGeneralData   = "general_data"
)

// compile-time interface check
var _ gridstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open dials MongoDB and returns a ready store.
func Open(uri, database string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(context.Background(), uri, mongodriver.WithDatabase(database)); err != nil {
		return nil, fmt.Errorf("gridbill/mongo: open: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		return nil, fmt.Errorf("gridbill/mongo: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all gridbill collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("gridbill/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Meter registry ====================

func (s *Store) RegisterMeter(ctx context.Context, meterID int64) (bool, error) {
	m := &meter.Meter{
		Entity:  types.NewEntity(),
		ID:      id.NewMeterRecordID(),
		MeterID: meterID,
	}

	_, err := s.mdb.NewInsert(toMeterModel(m)).Exec(ctx)
	if err != nil {
		// The unique index on meter_id turns a re-registration into a
		// duplicate key error, which is the "already known" answer.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("gridbill/mongo: register meter: %w", err)
	}
	return true, nil
}

func (s *Store) HasMeter(ctx context.Context, meterID int64) (bool, error) {
	var m meterModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"meter_id": meterID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return false, nil
		}
		return false, fmt.Errorf("gridbill/mongo: has meter: %w", err)
	}
	return true, nil
}

// ==================== Reading log ====================

func (s *Store) AppendReading(ctx context.Context, r *meter.Reading) error {
	_, err := s.mdb.NewInsert(toReadingModel(r)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gridbill/mongo: append reading: %w", err)
	}
	return nil
}

func (s *Store) LastReading(ctx context.Context) (*meter.Reading, error) {
	var m lastReadingSlotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": gridstore.KeyLastReading}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, gridbill.ErrNotFound
		}
		return nil, fmt.Errorf("gridbill/mongo: last reading: %w", err)
	}
	return fromReadingDoc(m.Data)
}

func (s *Store) SetLastReading(ctx context.Context, r *meter.Reading) error {
	m := &lastReadingSlotModel{
		Key:  gridstore.KeyLastReading,
		Data: toReadingDoc(r),
	}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":  m.Key,
			"data": m.Data,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gridbill/mongo: set last reading: %w", err)
	}
	return nil
}

// ==================== Tariff history ====================

func (s *Store) AppendTariff(ctx context.Context, v *tariff.Version) error {
	_, err := s.mdb.NewInsert(toTariffModel(v)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gridbill/mongo: append tariff: %w", err)
	}
	return nil
}

func (s *Store) GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Version, error) {
	var m tariffModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tariffID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, gridbill.ErrTariffNotFound
		}
		return nil, fmt.Errorf("gridbill/mongo: get tariff: %w", err)
	}
	return fromTariffModel(&m)
}

func (s *Store) CurrentTariff(ctx context.Context) (*tariff.Version, error) {
	var m currentTariffSlotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": gridstore.KeyCurrentTariff}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, gridbill.ErrTariffNotSet
		}
		return nil, fmt.Errorf("gridbill/mongo: current tariff: %w", err)
	}

	v, err := fromTariffDoc(m.Data)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) SetCurrentTariff(ctx context.Context, v *tariff.Version) error {
	m := &currentTariffSlotModel{
		Key:  gridstore.KeyCurrentTariff,
		Data: toTariffDoc(v),
	}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":  m.Key,
			"data": m.Data,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gridbill/mongo: set current tariff: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all gridbill collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colMeters: {
			{
				Keys:    bson.D{{Key: "meter_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colTariffHistory: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colReadings: {
			{Keys: bson.D{{Key: "meter_id", Value: 1}, {Key: "date_time", Value: -1}}},
			{Keys: bson.D{{Key: "date_time", Value: -1}}},
		},
		colGeneralData: nil,
	}
}
