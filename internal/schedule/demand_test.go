package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pickupsched/internal/model"
)

func TestCapacityPolicy(t *testing.T) {
	full := model.DayAvailability{Date: thursday, BookableSlots: model.FullSlotSet}
	one := model.DayAvailability{Date: thursday, BookableSlots: model.NewSlotSet(model.Evening)}
	blocked := model.DayAvailability{Date: thursday, IsBlocked: true}

	tests := []struct {
		name        string
		policy      CapacityPolicy
		before      model.DayAvailability
		after       model.DayAvailability
		outstanding int
		wantWarn    bool
		capacity    int
	}{
		{"disabled", CapacityPolicy{}, full, blocked, 10, false, 0},
		{"no orders", CapacityPolicy{OrdersPerSlot: 2}, full, blocked, 0, false, 0},
		{"block with orders", CapacityPolicy{OrdersPerSlot: 2}, full, blocked, 1, true, 0},
		{"reduced but enough room", CapacityPolicy{OrdersPerSlot: 3}, full, one, 3, false, 0},
		{"reduced below demand", CapacityPolicy{OrdersPerSlot: 3}, full, one, 4, true, 3},
		{"not reduced", CapacityPolicy{OrdersPerSlot: 1}, one, full, 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.policy.Evaluate(tt.before, tt.after, tt.outstanding)
			if !tt.wantWarn {
				assert.Nil(t, w)
				return
			}
			if assert.NotNil(t, w) {
				assert.Equal(t, tt.capacity, w.Capacity)
				assert.Equal(t, tt.outstanding, w.Outstanding)
				assert.NotEmpty(t, w.Message)
			}
		})
	}
}

func TestNoDemandPolicy(t *testing.T) {
	assert.Nil(t, NoDemandPolicy{}.Evaluate(model.DayAvailability{BookableSlots: model.FullSlotSet}, model.DayAvailability{}, 99))
}
