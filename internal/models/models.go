package models

import "time"

// SchemaVersion is the current version of the local document format.
const SchemaVersion = 1

// Unit types.
const (
	UnitTypeTent = "tent"
	UnitTypeSpot = "spot"
)

// Unit represents a rentable camping resource (tent or spot).
type Unit struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // tent, spot
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
}

// IsLive reports whether the unit is visible to listings and lookups.
func (u *Unit) IsLive() bool {
	return !u.IsDeleted
}

// Booking represents an occupancy record linking a guest to a unit
// over a date range. Dates are calendar dates in YYYY-MM-DD form.
type Booking struct {
	ID        string     `json:"id"`
	UnitID    string     `json:"unitId"`
	GuestName string     `json:"guestName"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"` // nullable: set when the booking is freed
}

// End deactivates the booking and stamps the end time.
func (b *Booking) End(now time.Time) {
	b.IsActive = false
	b.EndedAt = &now
	b.UpdatedAt = now
}

// Document is the whole local persisted state: one JSON blob holding
// both collections. It is replaced wholesale on every write.
type Document struct {
	SchemaVersion int       `json:"schemaVersion"`
	Units         []Unit    `json:"units"`
	Bookings      []Booking `json:"bookings"`
}

// BlankDocument returns an empty document at the current schema version.
func BlankDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Units:         []Unit{},
		Bookings:      []Booking{},
	}
}

// LiveUnits returns all units that are not soft-deleted.
func (d *Document) LiveUnits() []Unit {
	units := make([]Unit, 0, len(d.Units))
	for _, u := range d.Units {
		if u.IsLive() {
			units = append(units, u)
		}
	}
	return units
}

// ActiveBookings returns all bookings currently in effect.
func (d *Document) ActiveBookings() []Booking {
	bookings := make([]Booking, 0, len(d.Bookings))
	for _, b := range d.Bookings {
		if b.IsActive {
			bookings = append(bookings, b)
		}
	}
	return bookings
}

// UnitPatch carries optional field updates for a unit. Nil fields are
// left unchanged.
type UnitPatch struct {
	Type *string
	Name *string
}

// Apply copies the set fields onto the unit. Timestamps are the
// caller's responsibility.
func (p UnitPatch) Apply(u *Unit) {
	if p.Type != nil {
		u.Type = *p.Type
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
}
