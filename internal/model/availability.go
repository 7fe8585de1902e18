package model

// Rejection tells why a slot is not bookable.
type Rejection string

const (
	RejectNone        Rejection = ""
	RejectUnavailable Rejection = "unavailable"      // affiliate does not offer the slot
	RejectLeadTime    Rejection = "within_lead_time" // shown as "within 24 hrs"
	RejectHorizon     Rejection = "beyond_horizon"
)

// SlotStatus is the per-slot outcome after the booking window is applied.
type SlotStatus struct {
	Slot      Slot      `json:"slot"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Available bool      `json:"available"`
	Reason    Rejection `json:"reason,omitempty"`
}

// DayAvailability is the resolved, derived state of one calendar date.
type DayAvailability struct {
	Date          Date         `json:"date"`
	Weekday       Weekday      `json:"weekday"`
	Enabled       bool         `json:"enabled"`
	BookableSlots SlotSet      `json:"bookable_slots"`
	IsBlocked     bool         `json:"is_blocked"`
	IsOverride    bool         `json:"is_override"`
	Reason        string       `json:"reason,omitempty"`
	Slots         []SlotStatus `json:"slots,omitempty"`
}

// Coverage classifies how much of a day is bookable.
type Coverage string

const (
	CoverageNone    Coverage = "none"
	CoveragePartial Coverage = "partial"
	CoverageFull    Coverage = "full"
)

func (d DayAvailability) Coverage() Coverage {
	switch {
	case d.BookableSlots.IsFull():
		return CoverageFull
	case d.BookableSlots.IsEmpty():
		return CoverageNone
	default:
		return CoveragePartial
	}
}
