// Package calendar builds the month grid shown by the date picker and the
// schedule editor. Build is pure: all inputs arrive in MonthState.
package calendar

import (
	"fmt"
	"time"

	"pickupsched/internal/model"
)

// CellKind is how a date renders in the grid.
type CellKind string

const (
	KindOutside  CellKind = "outside" // padding before day 1 or after the last day
	KindBlocked  CellKind = "blocked"
	KindOverride CellKind = "override"
	KindNone     CellKind = "none"
	KindPartial  CellKind = "partial"
	KindFull     CellKind = "full"
)

// MonthState is everything Build needs.
type MonthState struct {
	Year  int
	Month time.Month
	Today model.Date
	// Days holds resolved availability; dates without an entry render as none.
	Days     []model.DayAvailability
	Selected model.Date
}

type Cell struct {
	Date       string        `json:"date,omitempty"`
	Day        int           `json:"day,omitempty"`
	Kind       CellKind      `json:"kind"`
	Slots      model.SlotSet `json:"slots"`
	Reason     string        `json:"reason,omitempty"`
	Today      bool          `json:"today,omitempty"`
	Past       bool          `json:"past,omitempty"`
	Selected   bool          `json:"selected,omitempty"`
	Selectable bool          `json:"selectable"`
}

// Grid is a Monday-first month view.
type Grid struct {
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Weekdays []string  `json:"weekdays"`
	Weeks    [][7]Cell `json:"weeks"`
	Prev     string    `json:"prev"`
	Next     string    `json:"next"`
}

var weekdayHeader = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, model.NewValidationError("month", "must be YYYY-MM")
	}
	return t.Year(), t.Month(), nil
}

// MonthRange returns the first and last date of the month.
func MonthRange(year int, month time.Month) (model.Date, model.Date) {
	first := model.NewDate(year, month, 1)
	return first, first.AddDays(DaysIn(month, year) - 1)
}

func Build(state MonthState) Grid {
	byDate := make(map[model.Date]model.DayAvailability, len(state.Days))
	for _, d := range state.Days {
		byDate[d.Date] = d
	}

	first, _ := MonthRange(state.Year, state.Month)
	offset := mondayIndex(first.Weekday())
	daysInMonth := DaysIn(state.Month, state.Year)

	g := Grid{
		Title:    fmt.Sprintf("%s %d", state.Month, state.Year),
		Year:     state.Year,
		Month:    int(state.Month),
		Weekdays: weekdayHeader,
		Prev:     monthKey(first.AddDays(-1)),
		Next:     monthKey(first.AddDays(daysInMonth)),
	}

	day := 1
	for day <= daysInMonth {
		var week [7]Cell
		for col := 0; col < 7; col++ {
			if (len(g.Weeks) == 0 && col < offset) || day > daysInMonth {
				week[col] = Cell{Kind: KindOutside}
				continue
			}
			date := model.NewDate(state.Year, state.Month, day)
			week[col] = buildCell(date, byDate, state)
			day++
		}
		g.Weeks = append(g.Weeks, week)
	}
	return g
}

func buildCell(date model.Date, byDate map[model.Date]model.DayAvailability, state MonthState) Cell {
	c := Cell{
		Date:     date.String(),
		Day:      date.Day,
		Kind:     KindNone,
		Today:    date == state.Today,
		Past:     !state.Today.IsZero() && date.Before(state.Today),
		Selected: !state.Selected.IsZero() && date == state.Selected,
	}
	avail, ok := byDate[date]
	if !ok {
		return c
	}
	c.Slots = avail.BookableSlots
	c.Reason = avail.Reason
	switch {
	case avail.IsBlocked:
		c.Kind = KindBlocked
	case avail.IsOverride && !avail.BookableSlots.IsEmpty():
		c.Kind = KindOverride
	default:
		switch avail.Coverage() {
		case model.CoverageFull:
			c.Kind = KindFull
		case model.CoveragePartial:
			c.Kind = KindPartial
		}
	}
	c.Selectable = !c.Past && !avail.BookableSlots.IsEmpty()
	return c
}

// mondayIndex maps Monday to 0 and Sunday to 6.
func mondayIndex(w model.Weekday) int {
	return (int(w) + 6) % 7
}

func monthKey(d model.Date) string {
	return d.String()[:7]
}

// DaysIn returns the number of days in month m of year.
func DaysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
