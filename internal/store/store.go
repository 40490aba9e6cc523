// Package store defines the logical operation set shared by the cloud
// and local persistence backends, and the domain errors they map
// backend-specific failures onto.
package store

import (
	"context"
	"errors"

	"github.com/GaxiSz/camping-tent-manager/internal/models"
)

var (
	// ErrUnitAlreadyBooked is returned when creating a booking for a
	// unit that already has an active one and the backend enforces
	// uniqueness (the cloud store's partial unique index).
	ErrUnitAlreadyBooked = errors.New("unit is already booked")

	// ErrCorruptDocument is returned by the local store in strict mode
	// when the stored blob is not valid JSON.
	ErrCorruptDocument = errors.New("corrupt stored document")

	// ErrInvalidImport is returned when an import payload is not a
	// JSON object. The stored document is left untouched.
	ErrInvalidImport = errors.New("invalid JSON")
)

// Store is the operation set both backends expose. The cloud backend
// additionally scopes every call by a tenant identifier, so its
// methods live behind a tenant-bound view (see cloud.Store.Tenant).
type Store interface {
	ListUnits(ctx context.Context) ([]models.Unit, error)
	CreateUnit(ctx context.Context, unitType, name string) (*models.Unit, error)
	UpdateUnit(ctx context.Context, id string, patch models.UnitPatch) error
	DeleteUnit(ctx context.Context, id string) error

	ListActiveBookings(ctx context.Context) ([]models.Booking, error)
	ActiveBookingForUnit(ctx context.Context, unitID string) (*models.Booking, error)
	CreateBooking(ctx context.Context, unitID, guestName, startDate, endDate string) (*models.Booking, error)
	ExtendBooking(ctx context.Context, bookingID, newEndDate string) error
	FreeUnit(ctx context.Context, unitID string) error
}
