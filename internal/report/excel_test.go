package report

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store/local"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	s := local.New(rdb, "", false, &logger)

	unit, err := s.CreateUnit(ctx, models.UnitTypeTent, "Birch tent")
	require.NoError(t, err)
	_, err = s.CreateBooking(ctx, unit.ID, "Alice", "2024-05-01", "2024-05-03")
	require.NoError(t, err)

	exporter := NewExporter(s, &logger)
	f, err := exporter.Generate(ctx)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Units", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Birch tent", name)

	guest, err := f.GetCellValue("Active bookings", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", guest)

	unitName, err := f.GetCellValue("Active bookings", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Birch tent", unitName, "bookings resolve their unit's display name")

	start, err := f.GetCellValue("Active bookings", "D2")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", start)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "occupancy_2026-01.xlsx", Filename(time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)))
}
