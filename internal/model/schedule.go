package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayTemplate is the recurring availability for one weekday.
type DayTemplate struct {
	Enabled bool      `json:"enabled" yaml:"enabled"`
	Slots   SlotFlags `json:"slots" yaml:"slots"`
}

// Effective returns the slots the day offers. A disabled day offers none
// whatever its stored flags say.
func (d DayTemplate) Effective() SlotSet {
	if !d.Enabled {
		return 0
	}
	return d.Slots.Set()
}

// WeeklyTemplate holds exactly one DayTemplate per weekday. The fixed array
// makes an incomplete week unrepresentable.
type WeeklyTemplate struct {
	days [7]DayTemplate
}

// NewWeeklyTemplate requires an entry for all seven weekdays.
func NewWeeklyTemplate(days map[Weekday]DayTemplate) (WeeklyTemplate, error) {
	var t WeeklyTemplate
	verr := &ValidationError{}
	for w := range days {
		if !w.Valid() {
			verr.Add("days", fmt.Sprintf("unknown weekday %d", int(w)))
		}
	}
	for _, w := range Weekdays {
		d, ok := days[w]
		if !ok {
			verr.Add("days."+w.String(), "is required")
			continue
		}
		t.days[w] = d
	}
	if err := verr.Err(); err != nil {
		return WeeklyTemplate{}, err
	}
	return t, nil
}

// DefaultWeeklyTemplate is Monday to Saturday fully open, Sunday closed.
func DefaultWeeklyTemplate() WeeklyTemplate {
	var t WeeklyTemplate
	for _, w := range Weekdays {
		if w == Sunday {
			continue
		}
		t.days[w] = DayTemplate{Enabled: true, Slots: AllSlotFlags}
	}
	return t
}

func (t WeeklyTemplate) Day(w Weekday) DayTemplate {
	if !w.Valid() {
		return DayTemplate{}
	}
	return t.days[w]
}

// With returns a copy of t with weekday w replaced.
func (t WeeklyTemplate) With(w Weekday, d DayTemplate) WeeklyTemplate {
	if w.Valid() {
		t.days[w] = d
	}
	return t
}

// Days returns the template keyed by weekday.
func (t WeeklyTemplate) Days() map[Weekday]DayTemplate {
	out := make(map[Weekday]DayTemplate, len(t.days))
	for _, w := range Weekdays {
		out[w] = t.days[w]
	}
	return out
}

type weeklyTemplateJSON struct {
	Days map[string]DayTemplate `json:"days"`
}

func (t WeeklyTemplate) MarshalJSON() ([]byte, error) {
	out := weeklyTemplateJSON{Days: make(map[string]DayTemplate, len(t.days))}
	for _, w := range Weekdays {
		out.Days[w.String()] = t.days[w]
	}
	return json.Marshal(out)
}

// UnmarshalJSON rejects unknown weekday names and any missing weekday.
func (t *WeeklyTemplate) UnmarshalJSON(data []byte) error {
	var in weeklyTemplateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	verr := &ValidationError{}
	days := make(map[Weekday]DayTemplate, len(in.Days))
	for name, d := range in.Days {
		w, err := ParseWeekday(name)
		if err != nil {
			verr.Add("days."+name, "unknown weekday")
			continue
		}
		days[w] = d
	}
	if err := verr.Err(); err != nil {
		return err
	}
	parsed, err := NewWeeklyTemplate(days)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ExceptionType distinguishes full-day blocks from custom slot overrides.
type ExceptionType string

const (
	ExceptionBlock    ExceptionType = "block"
	ExceptionOverride ExceptionType = "override"
)

func (t ExceptionType) Valid() bool {
	return t == ExceptionBlock || t == ExceptionOverride
}

// DateException overrides the weekly template on one calendar date.
type DateException struct {
	ID          string        `json:"id"`
	AffiliateID string        `json:"affiliate_id"`
	Date        Date          `json:"date"`
	Type        ExceptionType `json:"type"`
	TimeSlots   *SlotFlags    `json:"time_slots,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate checks the exception payload. Blocks drop any slot flags.
func (e *DateException) Validate() error {
	verr := &ValidationError{}
	if e.Date.IsZero() {
		verr.Add("date", "is required")
	}
	switch e.Type {
	case ExceptionBlock:
		e.TimeSlots = nil
	case ExceptionOverride:
		if e.TimeSlots == nil {
			verr.Add("time_slots", "is required for override exceptions")
		}
	default:
		verr.Add("type", fmt.Sprintf("must be %q or %q", ExceptionBlock, ExceptionOverride))
	}
	if len(e.Reason) > MaxReasonLength {
		verr.Add("reason", fmt.Sprintf("must be at most %d characters", MaxReasonLength))
	}
	return verr.Err()
}

// MaxReasonLength bounds the human-readable exception reason.
const MaxReasonLength = 200

// FindException returns the exception for date, if any.
func FindException(exceptions []DateException, date Date) (DateException, bool) {
	for _, e := range exceptions {
		if e.Date == date {
			return e, true
		}
	}
	return DateException{}, false
}

// Bounds for ScheduleSettings.
const (
	MinAdvanceBookingDays = 0
	MaxAdvanceBookingDays = 30
	MinMaxBookingDays     = 1
	MaxMaxBookingDays     = 90
)

// ScheduleSettings are the per-affiliate booking window rules.
type ScheduleSettings struct {
	AffiliateID        string    `json:"affiliate_id"`
	AdvanceBookingDays int       `json:"advance_booking_days"`
	MaxBookingDays     int       `json:"max_booking_days"`
	Timezone           string    `json:"timezone,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// DefaultScheduleSettings is used when an affiliate has no stored settings.
func DefaultScheduleSettings(affiliateID, timezone string) ScheduleSettings {
	return ScheduleSettings{
		AffiliateID:        affiliateID,
		AdvanceBookingDays: 1,
		MaxBookingDays:     30,
		Timezone:           timezone,
	}
}

func (s ScheduleSettings) Validate() error {
	verr := &ValidationError{}
	if s.AdvanceBookingDays < MinAdvanceBookingDays || s.AdvanceBookingDays > MaxAdvanceBookingDays {
		verr.Add("advance_booking_days",
			fmt.Sprintf("must be between %d and %d", MinAdvanceBookingDays, MaxAdvanceBookingDays))
	}
	if s.MaxBookingDays < MinMaxBookingDays || s.MaxBookingDays > MaxMaxBookingDays {
		verr.Add("max_booking_days",
			fmt.Sprintf("must be between %d and %d", MinMaxBookingDays, MaxMaxBookingDays))
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			verr.Add("timezone", fmt.Sprintf("unknown time zone %q", s.Timezone))
		}
	}
	return verr.Err()
}
