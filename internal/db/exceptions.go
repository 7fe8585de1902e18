package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pickupsched/internal/config"
	"pickupsched/internal/model"
)

const exceptionColumns = `id, affiliate_id, date, type, slot_morning, slot_afternoon, slot_evening,
	reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanException(row rowScanner) (model.DateException, error) {
	var e model.DateException
	var morning, afternoon, evening sql.NullBool
	var reason sql.NullString
	if err := row.Scan(
		&e.ID, &e.AffiliateID, &e.Date, &e.Type, &morning, &afternoon, &evening,
		&reason, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return model.DateException{}, err
	}
	if morning.Valid || afternoon.Valid || evening.Valid {
		e.TimeSlots = &model.SlotFlags{
			Morning:   morning.Bool,
			Afternoon: afternoon.Bool,
			Evening:   evening.Bool,
		}
	}
	if reason.Valid {
		e.Reason = reason.String
	}
	return e, nil
}

// LoadExceptions returns exceptions dated within [from, to], ordered by date.
func (db *DB) LoadExceptions(ctx context.Context, affiliateID string, from, to model.Date) ([]model.DateException, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+exceptionColumns+`
		FROM date_exceptions
		WHERE affiliate_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		affiliateID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exceptions []model.DateException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// GetException returns one exception by id.
func (db *DB) GetException(ctx context.Context, affiliateID, id string) (model.DateException, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+exceptionColumns+`
		FROM date_exceptions
		WHERE affiliate_id = ? AND id = ?`,
		affiliateID, id,
	)
	e, err := scanException(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DateException{}, model.ErrNotFound
	}
	return e, err
}

// UpsertException replaces whatever exception exists on the same date. The
// original created_at is kept.
func (db *DB) UpsertException(ctx context.Context, e model.DateException) (model.DateException, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	var morning, afternoon, evening sql.NullBool
	if e.TimeSlots != nil {
		morning = sql.NullBool{Bool: e.TimeSlots.Morning, Valid: true}
		afternoon = sql.NullBool{Bool: e.TimeSlots.Afternoon, Valid: true}
		evening = sql.NullBool{Bool: e.TimeSlots.Evening, Valid: true}
	}
	var reason sql.NullString
	if e.Reason != "" {
		reason = sql.NullString{String: e.Reason, Valid: true}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return model.DateException{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO date_exceptions (`+exceptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(affiliate_id, date) DO UPDATE SET
			id = excluded.id,
			type = excluded.type,
			slot_morning = excluded.slot_morning,
			slot_afternoon = excluded.slot_afternoon,
			slot_evening = excluded.slot_evening,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		e.ID, e.AffiliateID, e.Date, e.Type, morning, afternoon, evening,
		reason, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return model.DateException{}, fmt.Errorf("upsert exception %s on %s: %w", e.AffiliateID, e.Date, err)
	}

	stored, err := scanException(tx.QueryRowContext(ctx, `
		SELECT `+exceptionColumns+`
		FROM date_exceptions
		WHERE affiliate_id = ? AND date = ?`,
		e.AffiliateID, e.Date,
	))
	if err != nil {
		return model.DateException{}, fmt.Errorf("read back exception: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.DateException{}, err
	}
	return stored, nil
}

// DeleteException returns model.ErrNotFound when no row matched.
func (db *DB) DeleteException(ctx context.Context, affiliateID, id string) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM date_exceptions WHERE affiliate_id = ? AND id = ?",
		affiliateID, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ApplyHolidays inserts a block exception per holiday for every scheduled
// affiliate. Dates that already carry an exception are left untouched.
// It returns the rows actually inserted.
func (db *DB) ApplyHolidays(ctx context.Context, holidays []config.Holiday) ([]model.DateException, error) {
	if len(holidays) == 0 {
		return nil, nil
	}
	affiliates, err := db.ListAffiliates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list affiliates: %w", err)
	}
	if len(affiliates) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO date_exceptions (id, affiliate_id, date, type, reason, created_at, updated_at)
		VALUES (?, ?, ?, 'block', ?, ?, ?)
		ON CONFLICT(affiliate_id, date) DO NOTHING`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var inserted []model.DateException
	for _, h := range holidays {
		var reason sql.NullString
		if h.Name != "" {
			reason = sql.NullString{String: h.Name, Valid: true}
		}
		for _, aff := range affiliates {
			exc := model.DateException{
				ID:          uuid.NewString(),
				AffiliateID: aff,
				Date:        h.Date,
				Type:        model.ExceptionBlock,
				Reason:      h.Name,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			res, err := stmt.ExecContext(ctx, exc.ID, aff, h.Date, reason, now, now)
			if err != nil {
				return nil, fmt.Errorf("apply holiday %s for %s: %w", h.Date, aff, err)
			}
			if n, _ := res.RowsAffected(); n == 1 {
				inserted = append(inserted, exc)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	db.logger.Info().Int("holidays", len(holidays)).Int("inserted", len(inserted)).Msg("holiday calendar applied")
	return inserted, nil
}
