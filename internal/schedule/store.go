package schedule

import (
	"context"

	"pickupsched/internal/model"
)

// TemplateStore holds one weekly template per affiliate.
// LoadWeeklyTemplate returns model.ErrNotFound when none is stored.
type TemplateStore interface {
	LoadWeeklyTemplate(ctx context.Context, affiliateID string) (model.WeeklyTemplate, error)
	SaveWeeklyTemplate(ctx context.Context, affiliateID string, template model.WeeklyTemplate) error
}

// ExceptionStore holds at most one exception per (affiliate, date).
type ExceptionStore interface {
	// LoadExceptions returns the exceptions dated within [from, to], ordered by date.
	LoadExceptions(ctx context.Context, affiliateID string, from, to model.Date) ([]model.DateException, error)
	// UpsertException replaces any exception on the same date and returns the stored row.
	UpsertException(ctx context.Context, exc model.DateException) (model.DateException, error)
	// DeleteException returns model.ErrNotFound when id does not belong to the affiliate.
	DeleteException(ctx context.Context, affiliateID, id string) error
}

// SettingsStore holds booking window settings.
// LoadSettings returns model.ErrNotFound when none are stored.
type SettingsStore interface {
	LoadSettings(ctx context.Context, affiliateID string) (model.ScheduleSettings, error)
	SaveSettings(ctx context.Context, settings model.ScheduleSettings) error
}

// Registry reports whether an affiliate has configured scheduling.
type Registry interface {
	HasSchedule(ctx context.Context, affiliateID string) (bool, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	TemplateStore
	ExceptionStore
	SettingsStore
	Registry
}

// DemandCounter reports orders already booked for a date.
type DemandCounter interface {
	CountOutstandingOrders(ctx context.Context, affiliateID string, date model.Date) (int, error)
}
