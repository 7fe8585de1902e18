package schedule

import (
	"context"
	"fmt"
	"time"

	"pickupsched/internal/metrics"
	"pickupsched/internal/model"
	"pickupsched/internal/slots"
)

// GetAvailableRange returns one entry per date in [start, end], ordered.
// Slots outside the booking window are dropped from BookableSlots but the
// day is kept. Missing template or settings fall back to defaults; storage
// errors propagate.
func (s *Service) GetAvailableRange(ctx context.Context, affiliateID string, start, end model.Date) (days []model.DayAvailability, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAvailability("range", started, err) }()

	if err := validateRange(affiliateID, start, end); err != nil {
		return nil, err
	}
	return s.resolve(ctx, affiliateID, start, end)
}

// GetDay resolves a single date.
func (s *Service) GetDay(ctx context.Context, affiliateID string, date model.Date) (day model.DayAvailability, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAvailability("day", started, err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return model.DayAvailability{}, err
	}
	if date.IsZero() {
		return model.DayAvailability{}, model.NewValidationError("date", "is required")
	}

	days, err := s.resolve(ctx, affiliateID, date, date)
	if err != nil {
		return model.DayAvailability{}, err
	}
	return days[0], nil
}

func (s *Service) resolve(ctx context.Context, affiliateID string, start, end model.Date) ([]model.DayAvailability, error) {
	template, err := s.loadTemplate(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	settings, err := s.loadSettings(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.store.LoadExceptions(ctx, affiliateID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}

	r := s.resolverFor(settings)
	window := slots.NewWindow(s.bounds, r.Location(), settings)
	now := r.Now().Time

	days := slots.ResolveRange(template, exceptions, start, end)
	for i := range days {
		days[i] = window.Apply(days[i], now)
	}
	return days, nil
}

func validateRange(affiliateID string, start, end model.Date) error {
	verr := &model.ValidationError{}
	if affiliateID == "" {
		verr.Add("affiliate_id", "is required")
	}
	if start.IsZero() {
		verr.Add("start", "is required")
	}
	if end.IsZero() {
		verr.Add("end", "is required")
	}
	if verr.HasErrors() {
		return verr
	}
	if end.Before(start) {
		return model.NewValidationError("end", "must not be before start")
	}
	if start.DaysUntil(end)+1 > MaxRangeDays {
		return model.NewValidationError("end", fmt.Sprintf("range must not exceed %d days", MaxRangeDays))
	}
	return nil
}

// GetWeeklyTemplate returns the stored template or the default one.
func (s *Service) GetWeeklyTemplate(ctx context.Context, affiliateID string) (model.WeeklyTemplate, error) {
	if err := requireAffiliate(affiliateID); err != nil {
		return model.WeeklyTemplate{}, err
	}
	return s.loadTemplate(ctx, affiliateID)
}

// GetSettings returns the stored settings or the defaults.
func (s *Service) GetSettings(ctx context.Context, affiliateID string) (model.ScheduleSettings, error) {
	if err := requireAffiliate(affiliateID); err != nil {
		return model.ScheduleSettings{}, err
	}
	return s.loadSettings(ctx, affiliateID)
}

// ListExceptions returns exceptions dated within [from, to]. Zero bounds
// default to today and today+MaxMaxBookingDays.
func (s *Service) ListExceptions(ctx context.Context, affiliateID string, from, to model.Date) ([]model.DateException, error) {
	if err := requireAffiliate(affiliateID); err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.Today()
	}
	if to.IsZero() {
		to = from.AddDays(model.MaxMaxBookingDays)
	}
	if to.Before(from) {
		return nil, model.NewValidationError("to", "must not be before from")
	}

	exceptions, err := s.store.LoadExceptions(ctx, affiliateID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	if exceptions == nil {
		exceptions = []model.DateException{}
	}
	return exceptions, nil
}
