package local

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store"
)

func newTestStore(t *testing.T, strict bool) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	return New(rdb, "", strict, &logger), mr
}

func TestLoadBlankStates(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		s, _ := newTestStore(t, false)
		doc, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.SchemaVersion, doc.SchemaVersion)
		assert.Empty(t, doc.Units)
		assert.Empty(t, doc.Bookings)
	})

	t.Run("NoSchemaVersion", func(t *testing.T) {
		s, mr := newTestStore(t, false)
		mr.Set(DefaultKey, `{"units":[{"id":"u1","type":"tent","name":"old"}]}`)

		doc, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, doc.Units, "document without schemaVersion loads as blank")
	})

	t.Run("MalformedLenient", func(t *testing.T) {
		s, mr := newTestStore(t, false)
		mr.Set(DefaultKey, "not json at all")

		doc, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, doc.Units)
	})

	t.Run("MalformedStrict", func(t *testing.T) {
		s, mr := newTestStore(t, true)
		mr.Set(DefaultKey, "not json at all")

		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, store.ErrCorruptDocument)
		// Strict mode must not discard the blob.
		raw, _ := mr.Get(DefaultKey)
		assert.Equal(t, "not json at all", raw)
	})
}

func TestUnitLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeTent, "Birch tent")
	require.NoError(t, err)
	assert.NotEmpty(t, unit.ID)
	assert.False(t, unit.IsDeleted)

	units, err := s.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Birch tent", units[0].Name)

	newName := "Pine tent"
	require.NoError(t, s.UpdateUnit(ctx, unit.ID, models.UnitPatch{Name: &newName}))

	units, err = s.ListUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pine tent", units[0].Name)
	assert.True(t, units[0].UpdatedAt.After(unit.UpdatedAt) || units[0].UpdatedAt.Equal(unit.UpdatedAt))

	// Patching an unknown unit is a no-op.
	require.NoError(t, s.UpdateUnit(ctx, "missing", models.UnitPatch{Name: &newName}))

	require.NoError(t, s.DeleteUnit(ctx, unit.ID))
	units, err = s.ListUnits(ctx)
	require.NoError(t, err)
	assert.Empty(t, units, "soft-deleted units are excluded from listings")

	// Patching a deleted unit is a no-op too.
	require.NoError(t, s.UpdateUnit(ctx, unit.ID, models.UnitPatch{Name: &newName}))
}

func TestCreateBookingEnforcesSingleActive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeSpot, "Spot 12")
	require.NoError(t, err)

	b0, err := s.CreateBooking(ctx, unit.ID, "Alice", "2024-05-01", "2024-05-03")
	require.NoError(t, err)
	assert.True(t, b0.IsActive)

	b1, err := s.CreateBooking(ctx, unit.ID, "Bob", "2024-05-04", "2024-05-06")
	require.NoError(t, err)

	active, err := s.ListActiveBookings(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1, "at most one active booking per unit")
	assert.Equal(t, b1.ID, active[0].ID)
	assert.Equal(t, "Bob", active[0].GuestName)

	// The superseded booking keeps its record, deactivated and stamped.
	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Bookings, 2)
	for _, b := range doc.Bookings {
		if b.ID == b0.ID {
			assert.False(t, b.IsActive)
			require.NotNil(t, b.EndedAt)
		}
	}
}

func TestActiveBookingForUnit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeTent, "Tent A")
	require.NoError(t, err)

	got, err := s.ActiveBookingForUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	b, err := s.CreateBooking(ctx, unit.ID, "Carol", "2024-06-01", "2024-06-02")
	require.NoError(t, err)

	got, err = s.ActiveBookingForUnit(ctx, unit.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
}

func TestExtendBooking(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeTent, "Tent B")
	require.NoError(t, err)
	b, err := s.CreateBooking(ctx, unit.ID, "Dan", "2024-06-01", "2024-06-02")
	require.NoError(t, err)

	require.NoError(t, s.ExtendBooking(ctx, b.ID, "2024-06-05"))
	got, err := s.ActiveBookingForUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-05", got.EndDate)

	// Unknown id: no-op.
	require.NoError(t, s.ExtendBooking(ctx, "missing", "2024-06-09"))

	// Inactive booking: no-op.
	require.NoError(t, s.FreeUnit(ctx, unit.ID))
	require.NoError(t, s.ExtendBooking(ctx, b.ID, "2024-06-09"))
	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Bookings, 1)
	assert.Equal(t, "2024-06-05", doc.Bookings[0].EndDate, "extend after free leaves state unchanged")
}

func TestDeleteUnitCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeSpot, "Spot 7")
	require.NoError(t, err)
	_, err = s.CreateBooking(ctx, unit.ID, "Eve", "2024-07-01", "2024-07-04")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUnit(ctx, unit.ID))

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.True(t, doc.Units[0].IsDeleted)
	require.Len(t, doc.Bookings, 1)
	assert.False(t, doc.Bookings[0].IsActive)
	assert.NotNil(t, doc.Bookings[0].EndedAt)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, false)

	unit, err := s.CreateUnit(ctx, models.UnitTypeTent, "Tent C")
	require.NoError(t, err)

	out, err := s.Export(ctx)
	require.NoError(t, err)

	var doc models.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, models.SchemaVersion, doc.SchemaVersion)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, unit.ID, doc.Units[0].ID)

	t.Run("InvalidPayloadLeavesStateUntouched", func(t *testing.T) {
		before, _ := mr.Get(DefaultKey)
		err := s.Import(ctx, "not json")
		assert.ErrorIs(t, err, store.ErrInvalidImport)
		after, _ := mr.Get(DefaultKey)
		assert.Equal(t, before, after)
	})

	t.Run("NonObjectPayloadRejected", func(t *testing.T) {
		assert.ErrorIs(t, s.Import(ctx, `[1,2,3]`), store.ErrInvalidImport)
		assert.ErrorIs(t, s.Import(ctx, `null`), store.ErrInvalidImport)
	})

	t.Run("SchemaVersionInjected", func(t *testing.T) {
		require.NoError(t, s.Import(ctx, `{"units":[],"bookings":[]}`))
		doc, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.SchemaVersion, doc.SchemaVersion)
		assert.Empty(t, doc.Units, "import overwrites wholesale")
	})
}
