package slots

import (
	"reflect"
	"testing"
	"time"

	"pickupsched/internal/model"
)

// 2026-10-14 is a Wednesday.
var wednesday = model.NewDate(2026, time.October, 14)

func TestResolveDay(t *testing.T) {
	allClosed := model.WeeklyTemplate{}
	thursday := wednesday.AddDays(1)
	sunday := wednesday.AddDays(4)

	tests := []struct {
		name         string
		template     model.WeeklyTemplate
		exceptions   []model.DateException
		date         model.Date
		wantSlots    model.SlotSet
		wantEnabled  bool
		wantBlocked  bool
		wantOverride bool
		wantReason   string
	}{
		{
			name:        "template weekday fully open",
			template:    model.DefaultWeeklyTemplate(),
			date:        wednesday,
			wantSlots:   model.FullSlotSet,
			wantEnabled: true,
		},
		{
			name:     "template weekday disabled",
			template: model.DefaultWeeklyTemplate(),
			date:     sunday,
		},
		{
			name: "disabled day ignores stored flags",
			template: model.DefaultWeeklyTemplate().With(model.Wednesday, model.DayTemplate{
				Enabled: false,
				Slots:   model.AllSlotFlags,
			}),
			date: wednesday,
		},
		{
			name: "partial template day",
			template: model.DefaultWeeklyTemplate().With(model.Wednesday, model.DayTemplate{
				Enabled: true,
				Slots:   model.SlotFlags{Afternoon: true},
			}),
			date:        wednesday,
			wantSlots:   model.NewSlotSet(model.Afternoon),
			wantEnabled: true,
		},
		{
			name:     "block beats enabled template",
			template: model.DefaultWeeklyTemplate(),
			exceptions: []model.DateException{
				{Date: wednesday, Type: model.ExceptionBlock, Reason: "Holiday"},
			},
			date:        wednesday,
			wantBlocked: true,
			wantReason:  "Holiday",
		},
		{
			name:     "override replaces disabled template",
			template: allClosed,
			exceptions: []model.DateException{
				{Date: thursday, Type: model.ExceptionOverride, TimeSlots: &model.SlotFlags{Morning: true, Evening: true}},
			},
			date:         thursday,
			wantSlots:    model.NewSlotSet(model.Morning, model.Evening),
			wantEnabled:  true,
			wantOverride: true,
		},
		{
			name:     "override is not merged with template",
			template: model.DefaultWeeklyTemplate(),
			exceptions: []model.DateException{
				{Date: thursday, Type: model.ExceptionOverride, TimeSlots: &model.SlotFlags{Afternoon: true}},
			},
			date:         thursday,
			wantSlots:    model.NewSlotSet(model.Afternoon),
			wantEnabled:  true,
			wantOverride: true,
		},
		{
			name:     "all-false override is empty but not blocked",
			template: model.DefaultWeeklyTemplate(),
			exceptions: []model.DateException{
				{Date: thursday, Type: model.ExceptionOverride, TimeSlots: &model.SlotFlags{}, Reason: "Short staffed"},
			},
			date:         thursday,
			wantEnabled:  true,
			wantOverride: true,
			wantReason:   "Short staffed",
		},
		{
			name:     "exception on another date is ignored",
			template: model.DefaultWeeklyTemplate(),
			exceptions: []model.DateException{
				{Date: thursday, Type: model.ExceptionBlock},
			},
			date:        wednesday,
			wantSlots:   model.FullSlotSet,
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := ResolveDay(tt.template, tt.exceptions, tt.date)

			if day.Date != tt.date {
				t.Errorf("date = %s, want %s", day.Date, tt.date)
			}
			if day.BookableSlots != tt.wantSlots {
				t.Errorf("slots = %s, want %s", day.BookableSlots, tt.wantSlots)
			}
			if day.Enabled != tt.wantEnabled {
				t.Errorf("enabled = %v, want %v", day.Enabled, tt.wantEnabled)
			}
			if day.IsBlocked != tt.wantBlocked {
				t.Errorf("blocked = %v, want %v", day.IsBlocked, tt.wantBlocked)
			}
			if day.IsOverride != tt.wantOverride {
				t.Errorf("override = %v, want %v", day.IsOverride, tt.wantOverride)
			}
			if day.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", day.Reason, tt.wantReason)
			}
		})
	}
}

func TestResolveDay_BlockAlwaysWins(t *testing.T) {
	exceptions := []model.DateException{}
	for i := 0; i < 7; i++ {
		exceptions = append(exceptions, model.DateException{Date: wednesday.AddDays(i), Type: model.ExceptionBlock})
	}

	for i := 0; i < 7; i++ {
		day := ResolveDay(model.DefaultWeeklyTemplate(), exceptions, wednesday.AddDays(i))
		if !day.IsBlocked || !day.BookableSlots.IsEmpty() {
			t.Errorf("%s: expected blocked with no slots, got %+v", day.Date, day)
		}
	}
}

func TestResolveDay_OverrideIndependentOfTemplate(t *testing.T) {
	flags := model.SlotFlags{Morning: true, Evening: true}
	exceptions := []model.DateException{{Date: wednesday, Type: model.ExceptionOverride, TimeSlots: &flags}}

	templates := []model.WeeklyTemplate{
		{},
		model.DefaultWeeklyTemplate(),
		model.DefaultWeeklyTemplate().With(model.Wednesday, model.DayTemplate{Enabled: true, Slots: model.SlotFlags{Afternoon: true}}),
	}

	want := ResolveDay(templates[0], exceptions, wednesday)
	for i, tpl := range templates[1:] {
		if got := ResolveDay(tpl, exceptions, wednesday); !reflect.DeepEqual(got, want) {
			t.Errorf("template %d: got %+v, want %+v", i+1, got, want)
		}
	}
}

func TestResolveRange(t *testing.T) {
	days := ResolveRange(model.DefaultWeeklyTemplate(), nil, wednesday, wednesday.AddDays(6))
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	for i, d := range days {
		if d.Date != wednesday.AddDays(i) {
			t.Errorf("day %d: date %s out of order", i, d.Date)
		}
	}

	if got := ResolveRange(model.DefaultWeeklyTemplate(), nil, wednesday, wednesday.AddDays(-1)); got != nil {
		t.Errorf("expected nil for inverted range, got %d days", len(got))
	}
}
