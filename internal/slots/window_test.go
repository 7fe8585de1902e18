package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickupsched/internal/model"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func TestWindow_LeadTimeShiftsAtDayClose(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 30}

	tests := []struct {
		name string
		now  time.Time
		want model.Rejection
	}{
		{"one minute before close", time.Date(2026, 10, 13, 19, 59, 0, 0, loc), model.RejectNone},
		{"exactly at close", time.Date(2026, 10, 13, 20, 0, 0, 0, loc), model.RejectLeadTime},
		{"one minute after close", time.Date(2026, 10, 13, 20, 1, 0, 0, loc), model.RejectLeadTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range model.AllSlots {
				assert.Equal(t, tt.want, w.Check(wednesday, s, tt.now), "slot %s", s)
			}
		})
	}

	// The day after tomorrow is unaffected.
	late := time.Date(2026, 10, 13, 20, 1, 0, 0, loc)
	assert.Equal(t, model.RejectNone, w.Check(wednesday.AddDays(1), model.Morning, late))
}

func TestWindow_SameDayWithoutLeadTime(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 0, MaxBookingDays: 30}
	now := time.Date(2026, 10, 14, 13, 0, 0, 0, loc)

	assert.Equal(t, model.RejectLeadTime, w.Check(wednesday, model.Morning, now))
	assert.Equal(t, model.RejectNone, w.Check(wednesday, model.Afternoon, now))
	assert.Equal(t, model.RejectNone, w.Check(wednesday, model.Evening, now))
}

func TestWindow_PastDateIsNeverBookable(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 0, MaxBookingDays: 30}
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, loc)

	assert.Equal(t, model.RejectLeadTime, w.Check(wednesday.AddDays(-1), model.Evening, now))
}

func TestWindow_HorizonIsInclusive(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 30}
	now := time.Date(2026, 10, 13, 10, 0, 0, 0, loc)

	last := model.NewDate(2026, time.November, 12)
	assert.Equal(t, model.RejectNone, w.Check(last, model.Morning, now))
	assert.Equal(t, model.RejectHorizon, w.Check(last.AddDays(1), model.Morning, now))
}

func TestWindow_UsesAffiliateZone(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 30}

	// 01:30 UTC on the 14th is 20:30 on the 13th in Chicago: past close.
	now := time.Date(2026, 10, 14, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, model.RejectLeadTime, w.Check(wednesday, model.Evening, now))
}

func TestWindow_Apply(t *testing.T) {
	loc := chicago(t)
	w := NewWindow(DefaultBounds(), loc, model.ScheduleSettings{AdvanceBookingDays: 0, MaxBookingDays: 30})
	now := time.Date(2026, 10, 14, 13, 0, 0, 0, loc)

	day := model.DayAvailability{
		Date:          wednesday,
		Weekday:       model.Wednesday,
		Enabled:       true,
		BookableSlots: model.NewSlotSet(model.Morning, model.Afternoon),
	}

	got := w.Apply(day, now)
	assert.Equal(t, model.NewSlotSet(model.Afternoon), got.BookableSlots)
	assert.Equal(t, day.BookableSlots, model.NewSlotSet(model.Morning, model.Afternoon), "input must not change")
	require.Len(t, got.Slots, 3)

	assert.Equal(t, model.SlotStatus{Slot: model.Morning, Start: "08:00", End: "12:00", Reason: model.RejectLeadTime}, got.Slots[0])
	assert.Equal(t, model.SlotStatus{Slot: model.Afternoon, Start: "12:00", End: "16:00", Available: true}, got.Slots[1])
	assert.Equal(t, model.SlotStatus{Slot: model.Evening, Start: "16:00", End: "20:00", Reason: model.RejectUnavailable}, got.Slots[2])
}

func TestWindow_ApplyBeyondHorizonKeepsDay(t *testing.T) {
	loc := chicago(t)
	w := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 7}
	now := time.Date(2026, 10, 13, 10, 0, 0, 0, loc)

	far := ResolveDay(model.DefaultWeeklyTemplate(), nil, wednesday.AddDays(14))
	got := w.Apply(far, now)

	assert.True(t, got.Enabled)
	assert.True(t, got.BookableSlots.IsEmpty())
	for _, s := range got.Slots {
		assert.Equal(t, model.RejectHorizon, s.Reason)
	}
}

func TestIsBookable(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 10, 13, 10, 0, 0, 0, loc)

	assert.True(t, IsBookable(wednesday, model.Morning, now, 1, 30))
	assert.False(t, IsBookable(wednesday, model.Morning, now, 2, 30))
	assert.False(t, IsBookable(wednesday.AddDays(40), model.Morning, now, 1, 30))
}

func TestWindow_IsBookableUsesConfiguredBounds(t *testing.T) {
	loc := chicago(t)
	early, err := ParseBounds(map[string][2]string{"evening": {"16:00", "18:00"}})
	require.NoError(t, err)
	// 19:00 Tuesday: Wednesday still closes more than a day away with the
	// default 20:00 close, but not with an 18:00 close.
	now := time.Date(2026, 10, 13, 19, 0, 0, 0, loc)

	assert.True(t, IsBookable(wednesday, model.Morning, now, 1, 30))

	configured := Window{Bounds: early, Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 30}
	assert.False(t, configured.IsBookable(wednesday, model.Morning, now))
	assert.Equal(t, model.RejectLeadTime, configured.Check(wednesday, model.Morning, now))

	defaults := Window{Bounds: DefaultBounds(), Location: loc, AdvanceBookingDays: 1, MaxBookingDays: 30}
	assert.True(t, defaults.IsBookable(wednesday, model.Morning, now))
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay(" 07:30 ")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 30}, got)
	assert.Equal(t, "07:30", got.String())

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds(map[string][2]string{"evening": {"16:00", "21:00"}})
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{21, 0}, b.Range(model.Evening).End)
	assert.Equal(t, TimeOfDay{8, 0}, b.Range(model.Morning).Start)
	assert.Equal(t, time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC), b.DayClose(wednesday, time.UTC))

	tests := []struct {
		name   string
		ranges map[string][2]string
	}{
		{"unknown slot", map[string][2]string{"night": {"20:00", "23:00"}}},
		{"bad start", map[string][2]string{"morning": {"8am", "12:00"}}},
		{"empty window", map[string][2]string{"morning": {"12:00", "12:00"}}},
		{"overlap", map[string][2]string{"afternoon": {"11:00", "16:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBounds(tt.ranges)
			assert.Error(t, err)
		})
	}
}

func TestDefaultBounds(t *testing.T) {
	b := DefaultBounds()
	require.NoError(t, b.Validate())
	assert.Equal(t, time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC), b.DayClose(wednesday, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), b.Start(wednesday, model.Afternoon, time.UTC))
}
