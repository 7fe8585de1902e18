package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pickupsched/internal/model"
)

func TestWriteAvailability(t *testing.T) {
	tue := model.NewDate(2026, time.October, 13)
	wed := tue.AddDays(1)
	thu := tue.AddDays(2)

	days := []model.DayAvailability{
		{
			Date: tue, Weekday: tue.Weekday(), Enabled: true,
			BookableSlots: model.NewSlotSet(model.Evening),
			Slots: []model.SlotStatus{
				{Slot: model.Morning, Reason: model.RejectLeadTime},
				{Slot: model.Afternoon, Reason: model.RejectLeadTime},
				{Slot: model.Evening, Available: true},
			},
		},
		{Date: wed, Weekday: wed.Weekday(), Enabled: true, BookableSlots: model.FullSlotSet},
		{Date: thu, Weekday: thu.Weekday(), IsBlocked: true, Reason: "Holiday"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAvailability(&buf, "aff-1", days))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := "Availability aff-1"
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"2026-10-13", "tuesday", "partial", "within_lead_time", "within_lead_time", "available", "1"}, rows[1][:7])
	assert.Equal(t, "full", rows[2][2])
	assert.Equal(t, []string{"2026-10-15", "thursday", "blocked", "unavailable", "unavailable", "unavailable", "0", "Holiday"}, rows[3])
}

func TestTruncateSheetName(t *testing.T) {
	assert.Len(t, truncateSheetName("Availability 0123456789abcdef0123456789"), 31)
	assert.Equal(t, "Availability", truncateSheetName("Availability"))
}
