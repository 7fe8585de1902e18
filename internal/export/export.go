// Package export renders resolved availability as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pickupsched/internal/model"
)

const sheetName = "Availability"

var header = []string{"Date", "Weekday", "Status", "Morning", "Afternoon", "Evening", "Bookable", "Reason"}

// WriteAvailability writes one row per day to w.
func WriteAvailability(w io.Writer, affiliateID string, days []model.DayAvailability) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheetName
	if affiliateID != "" {
		name = truncateSheetName(sheetName + " " + affiliateID)
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, name, 1, toCells(header)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(name, "A1", endCell, style)
	}

	for i, d := range days {
		if err := writeRow(f, name, i+2, dayRow(d)); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(name, "A", "A", 12)
	_ = f.SetColWidth(name, "H", "H", 40)

	return f.Write(w)
}

func dayRow(d model.DayAvailability) []any {
	row := []any{d.Date.String(), d.Weekday.String(), status(d)}
	for _, s := range model.AllSlots {
		row = append(row, slotCell(d, s))
	}
	return append(row, d.BookableSlots.Len(), d.Reason)
}

func status(d model.DayAvailability) string {
	switch {
	case d.IsBlocked:
		return "blocked"
	case d.IsOverride:
		return "override"
	case !d.Enabled:
		return "closed"
	default:
		return string(d.Coverage())
	}
}

func slotCell(d model.DayAvailability, s model.Slot) string {
	if d.BookableSlots.Has(s) {
		return "available"
	}
	for _, st := range d.Slots {
		if st.Slot == s && st.Reason != model.RejectNone {
			return string(st.Reason)
		}
	}
	return string(model.RejectUnavailable)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Excel limits sheet names to 31 characters.
func truncateSheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
