// Package schedule answers availability queries for the customer picker and
// applies the affiliate editor's schedule changes.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pickupsched/internal/clock"
	"pickupsched/internal/events"
	"pickupsched/internal/model"
	"pickupsched/internal/slots"
)

// MaxRangeDays caps a single availability query.
const MaxRangeDays = 90

// Config carries the optional collaborators of a Service.
type Config struct {
	// Bounds defaults to slots.DefaultBounds.
	Bounds slots.Bounds
	// Demand and Policy drive the advisory warning on exception writes.
	// Both are optional.
	Demand DemandCounter
	Policy DemandPolicy
	Events *events.EventBus
	Logger zerolog.Logger
	// DefaultAdvanceDays and DefaultMaxDays apply to affiliates without
	// stored settings. Both zero means 1 and 30.
	DefaultAdvanceDays int
	DefaultMaxDays     int
}

// Service combines stored schedules with the booking window rules.
type Service struct {
	store  Store
	clock  *clock.Resolver
	bounds slots.Bounds
	demand DemandCounter
	policy DemandPolicy
	events *events.EventBus
	logger zerolog.Logger

	defaultAdvance int
	defaultMax     int
}

// NewService creates a new scheduling service.
func NewService(store Store, resolver *clock.Resolver, cfg Config) *Service {
	bounds := cfg.Bounds
	if bounds == (slots.Bounds{}) {
		bounds = slots.DefaultBounds()
	}
	policy := cfg.Policy
	if policy == nil {
		policy = NoDemandPolicy{}
	}
	d := model.DefaultScheduleSettings("", "")
	if cfg.DefaultAdvanceDays != 0 || cfg.DefaultMaxDays != 0 {
		d.AdvanceBookingDays = cfg.DefaultAdvanceDays
		d.MaxBookingDays = cfg.DefaultMaxDays
	}
	return &Service{
		store:          store,
		clock:          resolver,
		bounds:         bounds,
		demand:         cfg.Demand,
		policy:         policy,
		events:         cfg.Events,
		logger:         cfg.Logger.With().Str("component", "schedule").Logger(),
		defaultAdvance: d.AdvanceBookingDays,
		defaultMax:     d.MaxBookingDays,
	}
}

// DefaultSettings are the settings an affiliate gets before saving any.
func (s *Service) DefaultSettings(affiliateID string) model.ScheduleSettings {
	st := model.DefaultScheduleSettings(affiliateID, s.clock.Location().String())
	st.AdvanceBookingDays = s.defaultAdvance
	st.MaxBookingDays = s.defaultMax
	return st
}

// Bounds returns the slot windows in effect.
func (s *Service) Bounds() slots.Bounds {
	return s.bounds
}

// Today is the current date in the deployment zone.
func (s *Service) Today() model.Date {
	return s.clock.Now().Date()
}

func (s *Service) loadTemplate(ctx context.Context, affiliateID string) (model.WeeklyTemplate, error) {
	t, err := s.store.LoadWeeklyTemplate(ctx, affiliateID)
	if errors.Is(err, model.ErrNotFound) {
		return model.DefaultWeeklyTemplate(), nil
	}
	if err != nil {
		return model.WeeklyTemplate{}, fmt.Errorf("load weekly template: %w", err)
	}
	return t, nil
}

func (s *Service) loadSettings(ctx context.Context, affiliateID string) (model.ScheduleSettings, error) {
	st, err := s.store.LoadSettings(ctx, affiliateID)
	if errors.Is(err, model.ErrNotFound) {
		return s.DefaultSettings(affiliateID), nil
	}
	if err != nil {
		return model.ScheduleSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// resolverFor returns the clock for the affiliate's zone. An unusable zone
// falls back to the deployment zone.
func (s *Service) resolverFor(settings model.ScheduleSettings) *clock.Resolver {
	r, err := s.clock.In(settings.Timezone)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("affiliate_id", settings.AffiliateID).
			Str("timezone", settings.Timezone).
			Msg("unknown affiliate time zone, using deployment zone")
		return s.clock
	}
	return r
}

func (s *Service) requireSchedule(ctx context.Context, affiliateID string) error {
	ok, err := s.store.HasSchedule(ctx, affiliateID)
	if err != nil {
		return fmt.Errorf("check schedule: %w", err)
	}
	if !ok {
		return fmt.Errorf("affiliate %s: %w", affiliateID, model.ErrNotFound)
	}
	return nil
}

func (s *Service) publish(eventType, affiliateID string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, affiliateID, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event")
	}
}

func requireAffiliate(affiliateID string) error {
	if affiliateID == "" {
		return model.NewValidationError("affiliate_id", "is required")
	}
	return nil
}
