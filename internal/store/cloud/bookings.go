package cloud

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/GaxiSz/camping-tent-manager/internal/metrics"
	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store"
)

var _ store.Store = (*TenantStore)(nil)

// ListActiveBookings returns the tenant's bookings currently in effect.
func (s *TenantStore) ListActiveBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unit_id, guest_name, start_date, end_date, is_active, ended_at, created_at, updated_at
		FROM bookings
		WHERE tenant_id = ? AND is_active = 1`,
		s.tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ActiveBookingForUnit returns the active booking for a unit, or nil.
func (s *TenantStore) ActiveBookingForUnit(ctx context.Context, unitID string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, unit_id, guest_name, start_date, end_date, is_active, ended_at, created_at, updated_at
		FROM bookings
		WHERE tenant_id = ? AND unit_id = ? AND is_active = 1
		LIMIT 1`,
		s.tenant, unitID,
	)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBooking inserts a new active booking. The partial unique index
// on (tenant, unit, active) rejects a second active booking for the
// same unit; that violation surfaces as store.ErrUnitAlreadyBooked.
// Unlike the local enforcer, the previous booking is not ended here:
// the remote constraint is the arbiter.
func (s *TenantStore) CreateBooking(ctx context.Context, unitID, guestName, startDate, endDate string) (*models.Booking, error) {
	now := time.Now()
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, tenant_id, unit_id, guest_name, start_date, end_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		booking.ID, s.tenant, unitID, guestName, startDate, endDate, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			metrics.IncBookingConflict()
			return nil, store.ErrUnitAlreadyBooked
		}
		return nil, err
	}
	metrics.IncBookingCreated("cloud")
	return &booking, nil
}

// ExtendBooking sets a new end date on an active booking. Missing or
// inactive bookings affect zero rows and are a no-op.
func (s *TenantStore) ExtendBooking(ctx context.Context, bookingID, newEndDate string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET end_date = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND is_active = 1`,
		newEndDate, time.Now(), bookingID, s.tenant,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		metrics.IncBookingExtended("cloud")
	}
	return nil
}

// FreeUnit ends all active bookings for the unit.
func (s *TenantStore) FreeUnit(ctx context.Context, unitID string) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET is_active = 0, ended_at = ?, updated_at = ?
		WHERE tenant_id = ? AND unit_id = ? AND is_active = 1`,
		now, now, s.tenant, unitID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		metrics.IncBookingFreed("cloud")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var endedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.UnitID, &b.GuestName, &b.StartDate, &b.EndDate,
		&b.IsActive, &endedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		b.EndedAt = &t
	}
	return &b, nil
}
