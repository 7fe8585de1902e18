package slots

import (
	"time"

	"pickupsched/internal/model"
)

// Window applies the booking window rules of one affiliate.
//
// Lead time is measured against the close of the date's final window: a
// date is open for booking only while that close is more than
// AdvanceBookingDays×24h away. With one advance day and the default
// bounds this means tomorrow stops being bookable at 20:00 today. A slot
// whose own window already closed is never bookable.
//
// The horizon is inclusive: today+MaxBookingDays is the last bookable date.
type Window struct {
	Bounds             Bounds
	Location           *time.Location
	AdvanceBookingDays int
	MaxBookingDays     int
}

// NewWindow builds a Window from stored settings.
func NewWindow(bounds Bounds, loc *time.Location, settings model.ScheduleSettings) Window {
	return Window{
		Bounds:             bounds,
		Location:           loc,
		AdvanceBookingDays: settings.AdvanceBookingDays,
		MaxBookingDays:     settings.MaxBookingDays,
	}
}

func (w Window) location(now time.Time) *time.Location {
	if w.Location != nil {
		return w.Location
	}
	return now.Location()
}

// Check returns RejectNone when slot on date can be booked at now.
func (w Window) Check(date model.Date, slot model.Slot, now time.Time) model.Rejection {
	loc := w.location(now)
	today := model.DateOf(now.In(loc))

	if today.DaysUntil(date) > w.MaxBookingDays {
		return model.RejectHorizon
	}

	if !w.Bounds.End(date, slot, loc).After(now) {
		return model.RejectLeadTime
	}

	lead := time.Duration(w.AdvanceBookingDays) * 24 * time.Hour
	if w.Bounds.DayClose(date, loc).Sub(now) <= lead {
		return model.RejectLeadTime
	}

	return model.RejectNone
}

// Apply filters a resolved day. Slots the affiliate offers but the window
// rejects are dropped from BookableSlots; the day itself is kept.
func (w Window) Apply(day model.DayAvailability, now time.Time) model.DayAvailability {
	out := day
	out.BookableSlots = 0
	out.Slots = make([]model.SlotStatus, 0, len(model.AllSlots))

	for _, s := range model.AllSlots {
		r := w.Bounds.Range(s)
		status := model.SlotStatus{
			Slot:  s,
			Start: r.Start.String(),
			End:   r.End.String(),
		}

		if day.BookableSlots.Has(s) {
			status.Reason = w.Check(day.Date, s, now)
		} else {
			status.Reason = model.RejectUnavailable
		}

		if status.Reason == model.RejectNone {
			status.Available = true
			out.BookableSlots = out.BookableSlots.With(s)
		}
		out.Slots = append(out.Slots, status)
	}

	return out
}

// IsBookable reports whether w accepts slot on date at now.
func (w Window) IsBookable(date model.Date, slot model.Slot, now time.Time) bool {
	return w.Check(date, slot, now) == model.RejectNone
}

// IsBookable applies both rules in now's location using DefaultBounds only.
// Deployments with configured slot bounds must build a Window with those
// bounds and call its IsBookable instead.
func IsBookable(date model.Date, slot model.Slot, now time.Time, advanceBookingDays, maxBookingDays int) bool {
	w := Window{
		Bounds:             DefaultBounds(),
		Location:           now.Location(),
		AdvanceBookingDays: advanceBookingDays,
		MaxBookingDays:     maxBookingDays,
	}
	return w.IsBookable(date, slot, now)
}
