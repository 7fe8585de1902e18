package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pickupsched/internal/events"
	"pickupsched/internal/metrics"
	"pickupsched/internal/model"
	"pickupsched/internal/slots"
)

// EnableScheduling stores the default template and settings for an affiliate
// that has none. Existing values are left alone. created reports whether
// anything was written.
func (s *Service) EnableScheduling(ctx context.Context, affiliateID string) (created bool, err error) {
	defer func() { metrics.IncMutation("enable", err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return false, err
	}

	if _, err := s.store.LoadWeeklyTemplate(ctx, affiliateID); errors.Is(err, model.ErrNotFound) {
		if err := s.store.SaveWeeklyTemplate(ctx, affiliateID, model.DefaultWeeklyTemplate()); err != nil {
			return false, fmt.Errorf("save default template: %w", err)
		}
		created = true
	} else if err != nil {
		return false, fmt.Errorf("load weekly template: %w", err)
	}

	if _, err := s.store.LoadSettings(ctx, affiliateID); errors.Is(err, model.ErrNotFound) {
		st := s.DefaultSettings(affiliateID)
		st.UpdatedAt = s.now()
		if err := s.store.SaveSettings(ctx, st); err != nil {
			return created, fmt.Errorf("save default settings: %w", err)
		}
		created = true
	} else if err != nil {
		return created, fmt.Errorf("load settings: %w", err)
	}

	if created {
		s.logger.Info().Str("affiliate_id", affiliateID).Msg("scheduling enabled with defaults")
	}
	return created, nil
}

// SetWeeklyTemplate replaces the affiliate's template.
func (s *Service) SetWeeklyTemplate(ctx context.Context, affiliateID string, template model.WeeklyTemplate) (err error) {
	defer func() { metrics.IncMutation("set_template", err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return err
	}
	if err := s.requireSchedule(ctx, affiliateID); err != nil {
		return err
	}
	if err := s.store.SaveWeeklyTemplate(ctx, affiliateID, template); err != nil {
		return fmt.Errorf("save weekly template: %w", err)
	}

	s.logger.Info().Str("affiliate_id", affiliateID).Msg("weekly template saved")
	s.publish(events.TemplateSaved, affiliateID, template)
	return nil
}

// AddOrReplaceException stores exc as the only exception on its date. The
// returned warning is advisory; it is computed after the write succeeds and
// never causes the write to fail.
func (s *Service) AddOrReplaceException(ctx context.Context, affiliateID string, exc model.DateException) (stored model.DateException, warning *model.ConflictWarning, err error) {
	defer func() { metrics.IncMutation("upsert_exception", err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return model.DateException{}, nil, err
	}
	exc.AffiliateID = affiliateID
	if err := exc.Validate(); err != nil {
		return model.DateException{}, nil, err
	}
	if err := s.requireSchedule(ctx, affiliateID); err != nil {
		return model.DateException{}, nil, err
	}

	before, snapshotErr := s.snapshot(ctx, affiliateID, exc.Date)

	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	now := s.now()
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = now
	}
	exc.UpdatedAt = now

	stored, err = s.store.UpsertException(ctx, exc)
	if err != nil {
		return model.DateException{}, nil, fmt.Errorf("upsert exception: %w", err)
	}

	s.logger.Info().
		Str("affiliate_id", affiliateID).
		Str("date", stored.Date.String()).
		Str("type", string(stored.Type)).
		Msg("date exception saved")
	s.publish(events.ExceptionUpserted, affiliateID, stored)

	if snapshotErr != nil {
		s.logger.Warn().Err(snapshotErr).Str("affiliate_id", affiliateID).Msg("skip demand check")
		return stored, nil, nil
	}
	after := slots.ResolveDay(before.template, []model.DateException{stored}, stored.Date)
	warning = s.checkDemand(ctx, affiliateID, before.day, after)
	return stored, warning, nil
}

// NotifyHolidayBlocks announces block exceptions written by the holiday
// calendar. Each block replaced a plain template day, so it is published
// and demand-checked the same way an editor upsert is. Warnings are
// returned in block order.
func (s *Service) NotifyHolidayBlocks(ctx context.Context, blocks []model.DateException) []*model.ConflictWarning {
	var warnings []*model.ConflictWarning
	for _, block := range blocks {
		s.publish(events.ExceptionUpserted, block.AffiliateID, block)

		template, err := s.loadTemplate(ctx, block.AffiliateID)
		if err != nil {
			s.logger.Warn().Err(err).Str("affiliate_id", block.AffiliateID).Msg("skip demand check")
			continue
		}
		before := slots.ResolveDay(template, nil, block.Date)
		after := slots.ResolveDay(template, []model.DateException{block}, block.Date)
		if w := s.checkDemand(ctx, block.AffiliateID, before, after); w != nil {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

type daySnapshot struct {
	template model.WeeklyTemplate
	day      model.DayAvailability
}

func (s *Service) snapshot(ctx context.Context, affiliateID string, date model.Date) (daySnapshot, error) {
	template, err := s.loadTemplate(ctx, affiliateID)
	if err != nil {
		return daySnapshot{}, err
	}
	existing, err := s.store.LoadExceptions(ctx, affiliateID, date, date)
	if err != nil {
		return daySnapshot{}, fmt.Errorf("load exceptions: %w", err)
	}
	return daySnapshot{
		template: template,
		day:      slots.ResolveDay(template, existing, date),
	}, nil
}

func (s *Service) checkDemand(ctx context.Context, affiliateID string, before, after model.DayAvailability) *model.ConflictWarning {
	if s.demand == nil {
		return nil
	}
	outstanding, err := s.demand.CountOutstandingOrders(ctx, affiliateID, after.Date)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("affiliate_id", affiliateID).
			Str("date", after.Date.String()).
			Msg("count outstanding orders")
		return nil
	}

	warning := s.policy.Evaluate(before, after, outstanding)
	if warning == nil {
		return nil
	}

	metrics.IncDemandWarning()
	s.logger.Warn().
		Str("affiliate_id", affiliateID).
		Str("date", warning.Date.String()).
		Int("outstanding", warning.Outstanding).
		Int("capacity", warning.Capacity).
		Msg(warning.Message)
	s.publish(events.DemandWarning, affiliateID, warning)
	return warning
}

// RemoveException deletes an exception; its date reverts to the template.
func (s *Service) RemoveException(ctx context.Context, affiliateID, exceptionID string) (err error) {
	defer func() { metrics.IncMutation("remove_exception", err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return err
	}
	if exceptionID == "" {
		return model.NewValidationError("id", "is required")
	}
	if err := s.requireSchedule(ctx, affiliateID); err != nil {
		return err
	}
	if err := s.store.DeleteException(ctx, affiliateID, exceptionID); err != nil {
		return fmt.Errorf("delete exception %s: %w", exceptionID, err)
	}

	s.logger.Info().Str("affiliate_id", affiliateID).Str("exception_id", exceptionID).Msg("date exception removed")
	s.publish(events.ExceptionRemoved, affiliateID, map[string]string{"id": exceptionID})
	return nil
}

// UpdateSettings changes the booking window. The stored time zone is kept.
func (s *Service) UpdateSettings(ctx context.Context, affiliateID string, advanceBookingDays, maxBookingDays int) (model.ScheduleSettings, error) {
	return s.updateSettings(ctx, "update_settings", affiliateID, func(st *model.ScheduleSettings) {
		st.AdvanceBookingDays = advanceBookingDays
		st.MaxBookingDays = maxBookingDays
	})
}

// UpdateTimezone changes the zone used for the affiliate's booking window.
func (s *Service) UpdateTimezone(ctx context.Context, affiliateID, timezone string) (model.ScheduleSettings, error) {
	if timezone == "" {
		return model.ScheduleSettings{}, model.NewValidationError("timezone", "is required")
	}
	return s.updateSettings(ctx, "update_timezone", affiliateID, func(st *model.ScheduleSettings) {
		st.Timezone = timezone
	})
}

// SettingsPatch is a partial settings change. Nil fields keep their stored
// value.
type SettingsPatch struct {
	AdvanceBookingDays *int
	MaxBookingDays     *int
	Timezone           *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.AdvanceBookingDays == nil && p.MaxBookingDays == nil && p.Timezone == nil
}

// PatchSettings applies every supplied field and stores the result in one
// write. Nothing is saved unless the merged settings are valid.
func (s *Service) PatchSettings(ctx context.Context, affiliateID string, patch SettingsPatch) (model.ScheduleSettings, error) {
	if patch.IsEmpty() {
		return model.ScheduleSettings{}, model.NewValidationError("settings", "at least one field is required")
	}
	if patch.Timezone != nil && *patch.Timezone == "" {
		return model.ScheduleSettings{}, model.NewValidationError("timezone", "is required")
	}
	return s.updateSettings(ctx, "patch_settings", affiliateID, func(st *model.ScheduleSettings) {
		if patch.AdvanceBookingDays != nil {
			st.AdvanceBookingDays = *patch.AdvanceBookingDays
		}
		if patch.MaxBookingDays != nil {
			st.MaxBookingDays = *patch.MaxBookingDays
		}
		if patch.Timezone != nil {
			st.Timezone = *patch.Timezone
		}
	})
}

func (s *Service) updateSettings(ctx context.Context, op, affiliateID string, apply func(*model.ScheduleSettings)) (st model.ScheduleSettings, err error) {
	defer func() { metrics.IncMutation(op, err) }()

	if err := requireAffiliate(affiliateID); err != nil {
		return model.ScheduleSettings{}, err
	}
	if err := s.requireSchedule(ctx, affiliateID); err != nil {
		return model.ScheduleSettings{}, err
	}

	current, err := s.loadSettings(ctx, affiliateID)
	if err != nil {
		return model.ScheduleSettings{}, err
	}
	apply(&current)
	current.AffiliateID = affiliateID
	if err := current.Validate(); err != nil {
		return model.ScheduleSettings{}, err
	}
	current.UpdatedAt = s.now()

	if err := s.store.SaveSettings(ctx, current); err != nil {
		return model.ScheduleSettings{}, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info().
		Str("affiliate_id", affiliateID).
		Int("advance_booking_days", current.AdvanceBookingDays).
		Int("max_booking_days", current.MaxBookingDays).
		Str("timezone", current.Timezone).
		Msg("schedule settings saved")
	s.publish(events.SettingsUpdated, affiliateID, current)
	return current, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().Time.UTC()
}
