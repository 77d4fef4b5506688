// Package memory provides an in-memory ledger store for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/id"
	"github.com/xraph/gridbill/meter"
	gridstore "github.com/xraph/gridbill/store"
	"github.com/xraph/gridbill/tariff"
	"github.com/xraph/gridbill/types"
)

// compile-time interface check
var _ gridstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Meter registry
	meters map[int64]*meter.Meter

	// Append-only logs
	readings []meter.Reading
	tariffs  map[string]*tariff.Version

	// Current-state slots
	lastReading   *meter.Reading
	currentTariff *tariff.Version

	closed bool
}

func New() *Store {
	return &Store{
		meters:   make(map[int64]*meter.Meter),
		readings: make([]meter.Reading, 0),
		tariffs:  make(map[string]*tariff.Version),
	}
}

// Meter registry implementation

func (s *Store) RegisterMeter(_ context.Context, meterID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, gridbill.ErrStoreClosed
	}
	if _, exists := s.meters[meterID]; exists {
		return false, nil
	}

	s.meters[meterID] = &meter.Meter{
		Entity:  types.NewEntity(),
		ID:      id.NewMeterRecordID(),
		MeterID: meterID,
	}
	return true, nil
}

func (s *Store) HasMeter(_ context.Context, meterID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, gridbill.ErrStoreClosed
	}
	_, ok := s.meters[meterID]
	return ok, nil
}

// Reading log implementation

func (s *Store) AppendReading(_ context.Context, r *meter.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gridbill.ErrStoreClosed
	}
	s.readings = append(s.readings, *r)
	return nil
}

func (s *Store) LastReading(_ context.Context) (*meter.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, gridbill.ErrStoreClosed
	}
	if s.lastReading == nil {
		return nil, gridbill.ErrNotFound
	}

	r := *s.lastReading
	return &r, nil
}

func (s *Store) SetLastReading(_ context.Context, r *meter.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gridbill.ErrStoreClosed
	}

	snapshot := *r
	s.lastReading = &snapshot
	return nil
}

// Tariff history implementation

func (s *Store) AppendTariff(_ context.Context, v *tariff.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gridbill.ErrStoreClosed
	}

	snapshot := *v
	s.tariffs[v.ID.String()] = &snapshot
	return nil
}

func (s *Store) GetTariff(_ context.Context, tariffID id.TariffID) (*tariff.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, gridbill.ErrStoreClosed
	}
	if v, ok := s.tariffs[tariffID.String()]; ok {
		snapshot := *v
		return &snapshot, nil
	}
	return nil, gridbill.ErrTariffNotFound
}

func (s *Store) CurrentTariff(_ context.Context) (*tariff.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, gridbill.ErrStoreClosed
	}
	if s.currentTariff == nil {
		return nil, gridbill.ErrTariffNotSet
	}

	v := *s.currentTariff
	return &v, nil
}

func (s *Store) SetCurrentTariff(_ context.Context, v *tariff.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gridbill.ErrStoreClosed
	}

	snapshot := *v
	s.currentTariff = &snapshot
	return nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return gridbill.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// ReadingCount reports the number of appended readings. Test helper.
func (s *Store) ReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Readings returns a copy of the reading log. Test helper.
func (s *Store) Readings() []meter.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]meter.Reading, len(s.readings))
	copy(out, s.readings)
	return out
}
