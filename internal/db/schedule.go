package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pickupsched/internal/model"
)

// LoadWeeklyTemplate returns model.ErrNotFound when the affiliate has none.
func (db *DB) LoadWeeklyTemplate(ctx context.Context, affiliateID string) (model.WeeklyTemplate, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		"SELECT days FROM weekly_templates WHERE affiliate_id = ?",
		affiliateID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WeeklyTemplate{}, model.ErrNotFound
	}
	if err != nil {
		return model.WeeklyTemplate{}, err
	}

	var t model.WeeklyTemplate
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return model.WeeklyTemplate{}, fmt.Errorf("decode template for %s: %w", affiliateID, err)
	}
	return t, nil
}

// SaveWeeklyTemplate replaces the affiliate's template.
func (db *DB) SaveWeeklyTemplate(ctx context.Context, affiliateID string, t model.WeeklyTemplate) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO weekly_templates (affiliate_id, days, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(affiliate_id) DO UPDATE SET
			days = excluded.days,
			updated_at = excluded.updated_at`,
		affiliateID, string(raw), now, now,
	)
	return err
}

// HasSchedule reports whether the affiliate has a stored template.
func (db *DB) HasSchedule(ctx context.Context, affiliateID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weekly_templates WHERE affiliate_id = ?",
		affiliateID,
	).Scan(&count)
	return count > 0, err
}

// ListAffiliates returns every affiliate with scheduling enabled.
func (db *DB) ListAffiliates(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT affiliate_id FROM weekly_templates ORDER BY affiliate_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadSettings returns model.ErrNotFound when the affiliate has none.
func (db *DB) LoadSettings(ctx context.Context, affiliateID string) (model.ScheduleSettings, error) {
	s := model.ScheduleSettings{AffiliateID: affiliateID}
	var tz sql.NullString
	var updated sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT advance_booking_days, max_booking_days, timezone, updated_at
		FROM schedule_settings
		WHERE affiliate_id = ?`,
		affiliateID,
	).Scan(&s.AdvanceBookingDays, &s.MaxBookingDays, &tz, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduleSettings{}, model.ErrNotFound
	}
	if err != nil {
		return model.ScheduleSettings{}, err
	}
	if tz.Valid {
		s.Timezone = tz.String
	}
	if updated.Valid {
		s.UpdatedAt = updated.Time
	}
	return s, nil
}

// SaveSettings replaces the affiliate's settings.
func (db *DB) SaveSettings(ctx context.Context, s model.ScheduleSettings) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	var tz sql.NullString
	if s.Timezone != "" {
		tz = sql.NullString{String: s.Timezone, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_settings (affiliate_id, advance_booking_days, max_booking_days, timezone, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(affiliate_id) DO UPDATE SET
			advance_booking_days = excluded.advance_booking_days,
			max_booking_days = excluded.max_booking_days,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at`,
		s.AffiliateID, s.AdvanceBookingDays, s.MaxBookingDays, tz, updated,
	)
	return err
}
