// Package local implements the offline persistence backend: the whole
// state lives as one JSON document under a single Redis key and is
// replaced wholesale on every write.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/GaxiSz/camping-tent-manager/internal/metrics"
	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store"
)

// DefaultKey is the storage key the offline manager keeps its
// document under.
const DefaultKey = "offline_tent_manager_v1"

// Store is the local document store. The mutex serializes the
// read-modify-write cycle within this process; concurrent processes
// sharing the same key still race at whole-document granularity.
type Store struct {
	rdb    *redis.Client
	key    string
	strict bool
	logger *zerolog.Logger
	mu     sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New constructs a local store over rdb. An empty key falls back to
// DefaultKey. With strict set, a malformed stored document surfaces
// store.ErrCorruptDocument instead of being silently reset to blank.
func New(rdb *redis.Client, key string, strict bool, logger *zerolog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{rdb: rdb, key: key, strict: strict, logger: logger}
}

// Load reads the stored document. A missing key or a document without
// a schemaVersion yields a blank document. Malformed JSON yields a
// blank document in lenient mode (logged and counted) or
// ErrCorruptDocument in strict mode.
func (s *Store) Load(ctx context.Context) (*models.Document, error) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return models.BlankDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		if s.strict {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruptDocument, err)
		}
		s.logger.Warn().Err(err).Str("key", s.key).Msg("stored document malformed, resetting to blank")
		metrics.IncLocalReset()
		return models.BlankDocument(), nil
	}
	if doc.SchemaVersion == 0 {
		// A foreign or pre-versioning blob; treat as absent.
		return models.BlankDocument(), nil
	}
	if doc.Units == nil {
		doc.Units = []models.Unit{}
	}
	if doc.Bookings == nil {
		doc.Bookings = []models.Booking{}
	}
	return &doc, nil
}

func (s *Store) save(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// ListUnits returns all live units in document order.
func (s *Store) ListUnits(ctx context.Context) ([]models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.LiveUnits(), nil
}

// CreateUnit appends a new live unit and returns it.
func (s *Store) CreateUnit(ctx context.Context, unitType, name string) (*models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	unit := models.Unit{
		ID:        uuid.NewString(),
		Type:      unitType,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Units = append(doc.Units, unit)
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	return &unit, nil
}

// UpdateUnit patches a live unit. Missing or soft-deleted units are a
// no-op.
func (s *Store) UpdateUnit(ctx context.Context, id string, patch models.UnitPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for i := range doc.Units {
		u := &doc.Units[i]
		if u.ID != id || u.IsDeleted {
			continue
		}
		patch.Apply(u)
		u.UpdatedAt = time.Now()
		return s.save(ctx, doc)
	}
	return nil
}

// DeleteUnit soft-deletes a unit and ends any active booking for it.
func (s *Store) DeleteUnit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	var unit *models.Unit
	for i := range doc.Units {
		if doc.Units[i].ID == id && !doc.Units[i].IsDeleted {
			unit = &doc.Units[i]
			break
		}
	}
	if unit == nil {
		return nil
	}

	now := time.Now()
	unit.IsDeleted = true
	unit.UpdatedAt = now
	endActiveBookings(doc, id, now)

	if err := s.save(ctx, doc); err != nil {
		return err
	}
	metrics.IncUnitDeleted("local")
	return nil
}

// ListActiveBookings returns all bookings currently in effect.
func (s *Store) ListActiveBookings(ctx context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.ActiveBookings(), nil
}

// ActiveBookingForUnit returns the active booking for a unit, or nil.
func (s *Store) ActiveBookingForUnit(ctx context.Context, unitID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Bookings {
		if doc.Bookings[i].UnitID == unitID && doc.Bookings[i].IsActive {
			b := doc.Bookings[i]
			return &b, nil
		}
	}
	return nil, nil
}

// CreateBooking ends any active booking for the unit and appends a new
// active one, so exactly one active booking exists for the unit after
// it returns. Last writer wins; there is no cross-process lock.
func (s *Store) CreateBooking(ctx context.Context, unitID, guestName, startDate, endDate string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	endActiveBookings(doc, unitID, now)

	booking := models.Booking{
		ID:        uuid.NewString(),
		UnitID:    unitID,
		GuestName: guestName,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Bookings = append(doc.Bookings, booking)
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	metrics.IncBookingCreated("local")
	return &booking, nil
}

// ExtendBooking sets a new end date on an active booking. Missing or
// inactive bookings are a no-op. The new date is not validated against
// the current range; the caller is trusted.
func (s *Store) ExtendBooking(ctx context.Context, bookingID, newEndDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for i := range doc.Bookings {
		b := &doc.Bookings[i]
		if b.ID != bookingID {
			continue
		}
		if !b.IsActive {
			return nil
		}
		b.EndDate = newEndDate
		b.UpdatedAt = time.Now()
		if err := s.save(ctx, doc); err != nil {
			return err
		}
		metrics.IncBookingExtended("local")
		return nil
	}
	return nil
}

// FreeUnit ends all active bookings for the unit (nominally one).
func (s *Store) FreeUnit(ctx context.Context, unitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if !endActiveBookings(doc, unitID, time.Now()) {
		return nil
	}
	if err := s.save(ctx, doc); err != nil {
		return err
	}
	metrics.IncBookingFreed("local")
	return nil
}

// endActiveBookings deactivates every active booking of the unit and
// reports whether any booking changed.
func endActiveBookings(doc *models.Document, unitID string, now time.Time) bool {
	changed := false
	for i := range doc.Bookings {
		b := &doc.Bookings[i]
		if b.UnitID == unitID && b.IsActive {
			b.End(now)
			changed = true
		}
	}
	return changed
}
