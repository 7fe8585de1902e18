package schedule

import (
	"fmt"

	"pickupsched/internal/model"
)

// DemandPolicy decides whether an exception write deserves a warning.
// before and after are the resolved day without and with the new exception.
type DemandPolicy interface {
	Evaluate(before, after model.DayAvailability, outstanding int) *model.ConflictWarning
}

// CapacityPolicy warns when the exception lowers the day's slot count and
// the remaining slots cannot absorb the outstanding orders at OrdersPerSlot
// each. OrdersPerSlot <= 0 disables it.
type CapacityPolicy struct {
	OrdersPerSlot int
}

func (p CapacityPolicy) Evaluate(before, after model.DayAvailability, outstanding int) *model.ConflictWarning {
	if p.OrdersPerSlot <= 0 || outstanding <= 0 {
		return nil
	}
	if after.BookableSlots.Len() >= before.BookableSlots.Len() {
		return nil
	}

	capacity := after.BookableSlots.Len() * p.OrdersPerSlot
	if outstanding <= capacity {
		return nil
	}

	msg := fmt.Sprintf("%d outstanding orders on %s exceed the remaining capacity of %d", outstanding, after.Date, capacity)
	if after.IsBlocked {
		msg = fmt.Sprintf("%s is blocked but has %d outstanding orders", after.Date, outstanding)
	}
	return &model.ConflictWarning{
		Date:        after.Date,
		Outstanding: outstanding,
		Capacity:    capacity,
		Message:     msg,
	}
}

// NoDemandPolicy never warns.
type NoDemandPolicy struct{}

func (NoDemandPolicy) Evaluate(model.DayAvailability, model.DayAvailability, int) *model.ConflictWarning {
	return nil
}
