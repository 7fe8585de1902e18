package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday mirrors time.Weekday (Sunday = 0) with lowercase wire names.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Weekdays lists every weekday in Sunday-first order.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday accepts the lowercase name in any case.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Slot is one of the three fixed daily pickup windows.
type Slot int

const (
	Morning Slot = iota
	Afternoon
	Evening
)

// AllSlots lists the slots in chronological order.
var AllSlots = []Slot{Morning, Afternoon, Evening}

var slotNames = [3]string{"morning", "afternoon", "evening"}

func (s Slot) Valid() bool {
	return s >= Morning && s <= Evening
}

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

func ParseSlot(s string) (Slot, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range slotNames {
		if n == name {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown slot %q", s)
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid slot %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SlotSet is a set of slots. The zero value is empty.
type SlotSet uint8

// FullSlotSet contains every slot.
const FullSlotSet SlotSet = 1<<Morning | 1<<Afternoon | 1<<Evening

func NewSlotSet(slots ...Slot) SlotSet {
	var set SlotSet
	for _, s := range slots {
		set = set.With(s)
	}
	return set
}

func (set SlotSet) Has(s Slot) bool {
	return s.Valid() && set&(1<<s) != 0
}

func (set SlotSet) With(s Slot) SlotSet {
	if !s.Valid() {
		return set
	}
	return set | 1<<s
}

func (set SlotSet) Without(s Slot) SlotSet {
	if !s.Valid() {
		return set
	}
	return set &^ (1 << s)
}

func (set SlotSet) Len() int {
	n := 0
	for _, s := range AllSlots {
		if set.Has(s) {
			n++
		}
	}
	return n
}

func (set SlotSet) IsEmpty() bool { return set&FullSlotSet == 0 }

func (set SlotSet) IsFull() bool { return set&FullSlotSet == FullSlotSet }

// Slots returns the members in chronological order.
func (set SlotSet) Slots() []Slot {
	out := make([]Slot, 0, len(AllSlots))
	for _, s := range AllSlots {
		if set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (set SlotSet) String() string {
	names := make([]string, 0, len(AllSlots))
	for _, s := range set.Slots() {
		names = append(names, s.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// MarshalJSON encodes the set as an ordered array of slot names, never null.
func (set SlotSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Slots())
}

func (set *SlotSet) UnmarshalJSON(data []byte) error {
	var slots []Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	*set = NewSlotSet(slots...)
	return nil
}

// SlotFlags is the per-slot boolean form used by templates and overrides.
type SlotFlags struct {
	Morning   bool `json:"morning" yaml:"morning"`
	Afternoon bool `json:"afternoon" yaml:"afternoon"`
	Evening   bool `json:"evening" yaml:"evening"`
}

// AllSlotFlags has every slot enabled.
var AllSlotFlags = SlotFlags{Morning: true, Afternoon: true, Evening: true}

func (f SlotFlags) Set() SlotSet {
	var set SlotSet
	if f.Morning {
		set = set.With(Morning)
	}
	if f.Afternoon {
		set = set.With(Afternoon)
	}
	if f.Evening {
		set = set.With(Evening)
	}
	return set
}

func FlagsOf(set SlotSet) SlotFlags {
	return SlotFlags{
		Morning:   set.Has(Morning),
		Afternoon: set.Has(Afternoon),
		Evening:   set.Has(Evening),
	}
}
