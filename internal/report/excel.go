// Package report renders occupancy reports from a persistence backend
// into Excel workbooks.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/GaxiSz/camping-tent-manager/internal/models"
	"github.com/GaxiSz/camping-tent-manager/internal/store"
)

var unitColumns = []string{"ID", "Type", "Name", "Created", "Updated"}

var bookingColumns = []string{"ID", "Unit", "Guest", "Start", "End", "Created"}

// Exporter builds occupancy workbooks from any backend.
type Exporter struct {
	store  store.Store
	logger *zerolog.Logger
}

// NewExporter constructs an exporter over the given backend.
func NewExporter(s store.Store, logger *zerolog.Logger) *Exporter {
	return &Exporter{store: s, logger: logger}
}

// Generate builds a workbook with one sheet of live units and one of
// active bookings.
func (e *Exporter) Generate(ctx context.Context) (*excelize.File, error) {
	units, err := e.store.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	bookings, err := e.store.ListActiveBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	unitNames := make(map[string]string, len(units))
	for _, u := range units {
		unitNames[u.ID] = u.Name
	}

	f := excelize.NewFile()
	if err := writeUnitsSheet(f, units); err != nil {
		return nil, err
	}
	if err := writeBookingsSheet(f, bookings, unitNames); err != nil {
		return nil, err
	}

	e.logger.Info().Int("units", len(units)).Int("bookings", len(bookings)).Msg("occupancy report generated")
	return f, nil
}

// WriteTo generates the workbook and writes it to w.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer) error {
	f, err := e.Generate(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveToFile generates the workbook and saves it at path.
func (e *Exporter) SaveToFile(ctx context.Context, path string) error {
	f, err := e.Generate(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// Filename returns the report file name for the given month, like
// "occupancy_2026-01.xlsx".
func Filename(t time.Time) string {
	return fmt.Sprintf("occupancy_%04d-%02d.xlsx", t.Year(), int(t.Month()))
}

func writeUnitsSheet(f *excelize.File, units []models.Unit) error {
	const sheet = "Units"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet, unitColumns); err != nil {
		return err
	}
	for i, u := range units {
		row := []any{u.ID, u.Type, u.Name, u.CreatedAt.Format(time.RFC3339), u.UpdatedAt.Format(time.RFC3339)}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeBookingsSheet(f *excelize.File, bookings []models.Booking, unitNames map[string]string) error {
	const sheet = "Active bookings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	if err := writeHeader(f, sheet, bookingColumns); err != nil {
		return err
	}
	for i, b := range bookings {
		unit := unitNames[b.UnitID]
		if unit == "" {
			unit = b.UnitID
		}
		row := []any{b.ID, unit, b.GuestName, b.StartDate, b.EndDate, b.CreatedAt.Format(time.RFC3339)}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, columns []string) error {
	if err := writeRow(f, sheet, 1, toAny(columns)); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
