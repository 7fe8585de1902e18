package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pickupsched/internal/model"
)

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// On places t on date in loc.
func (t TimeOfDay) On(date model.Date, loc *time.Location) time.Time {
	return date.At(t.Hour, t.Minute, loc)
}

// Range is a slot's wall-clock window, [Start, End).
type Range struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Bounds assigns a Range to every slot. A single Bounds value is shared by
// the resolver output and the lead-time arithmetic.
type Bounds [3]Range

// DefaultBounds is the canonical set: 08–12, 12–16, 16–20.
func DefaultBounds() Bounds {
	return Bounds{
		model.Morning:   {Start: TimeOfDay{8, 0}, End: TimeOfDay{12, 0}},
		model.Afternoon: {Start: TimeOfDay{12, 0}, End: TimeOfDay{16, 0}},
		model.Evening:   {Start: TimeOfDay{16, 0}, End: TimeOfDay{20, 0}},
	}
}

// ParseBounds builds Bounds from "HH:MM" pairs keyed by slot name. Slots
// missing from ranges keep their default window.
func ParseBounds(ranges map[string][2]string) (Bounds, error) {
	b := DefaultBounds()
	for name, pair := range ranges {
		slot, err := model.ParseSlot(name)
		if err != nil {
			return Bounds{}, err
		}
		start, err := ParseTimeOfDay(pair[0])
		if err != nil {
			return Bounds{}, fmt.Errorf("%s.start: %w", name, err)
		}
		end, err := ParseTimeOfDay(pair[1])
		if err != nil {
			return Bounds{}, fmt.Errorf("%s.end: %w", name, err)
		}
		b[slot] = Range{Start: start, End: end}
	}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate requires non-empty windows in chronological, non-overlapping order.
func (b Bounds) Validate() error {
	for _, s := range model.AllSlots {
		r := b[s]
		if r.End.minutes() <= r.Start.minutes() {
			return fmt.Errorf("%s: end %s must be after start %s", s, r.End, r.Start)
		}
		if s > model.Morning && r.Start.minutes() < b[s-1].End.minutes() {
			return fmt.Errorf("%s: starts at %s before %s ends at %s", s, r.Start, s-1, b[s-1].End)
		}
	}
	return nil
}

func (b Bounds) Range(s model.Slot) Range {
	if !s.Valid() {
		return Range{}
	}
	return b[s]
}

// Start is the instant slot s opens on date.
func (b Bounds) Start(date model.Date, s model.Slot, loc *time.Location) time.Time {
	return b.Range(s).Start.On(date, loc)
}

// End is the instant slot s closes on date.
func (b Bounds) End(date model.Date, s model.Slot, loc *time.Location) time.Time {
	return b.Range(s).End.On(date, loc)
}

// DayClose is the instant the last window of date closes.
func (b Bounds) DayClose(date model.Date, loc *time.Location) time.Time {
	last := b[0].End
	for _, s := range model.AllSlots {
		if b[s].End.minutes() > last.minutes() {
			last = b[s].End
		}
	}
	return last.On(date, loc)
}
