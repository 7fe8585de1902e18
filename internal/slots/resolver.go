// Package slots decides per-date slot availability: template and exception
// precedence first, then the lead-time and horizon window.
package slots

import "pickupsched/internal/model"

// ResolveDay merges the weekly template and the date exceptions for date.
//
// Precedence, highest first: a block exception, an override exception (its
// slots replace the template outright), the template entry for the weekday.
func ResolveDay(template model.WeeklyTemplate, exceptions []model.DateException, date model.Date) model.DayAvailability {
	day := model.DayAvailability{
		Date:    date,
		Weekday: date.Weekday(),
	}

	if exc, ok := model.FindException(exceptions, date); ok {
		switch exc.Type {
		case model.ExceptionBlock:
			day.IsBlocked = true
			day.Reason = exc.Reason
			return day
		case model.ExceptionOverride:
			day.Enabled = true
			day.IsOverride = true
			day.Reason = exc.Reason
			if exc.TimeSlots != nil {
				day.BookableSlots = exc.TimeSlots.Set()
			}
			return day
		}
	}

	tpl := template.Day(day.Weekday)
	day.Enabled = tpl.Enabled
	day.BookableSlots = tpl.Effective()
	return day
}

// ResolveRange resolves every date in [start, end].
func ResolveRange(template model.WeeklyTemplate, exceptions []model.DateException, start, end model.Date) []model.DayAvailability {
	if end.Before(start) {
		return nil
	}
	days := make([]model.DayAvailability, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, ResolveDay(template, exceptions, d))
	}
	return days
}
