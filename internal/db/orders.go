package db

import (
	"context"
	"time"

	"pickupsched/internal/model"
)

// Order statuses that no longer occupy a pickup slot.
const (
	OrderCompleted = "completed"
	OrderCanceled  = "canceled"
)

// CountOutstandingOrders counts orders for the date that are neither
// completed nor canceled.
func (db *DB) CountOutstandingOrders(ctx context.Context, affiliateID string, date model.Date) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pickup_orders
		WHERE affiliate_id = ? AND pickup_date = ?
		AND status NOT IN (?, ?)`,
		affiliateID, date, OrderCompleted, OrderCanceled,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RecordOrder stores an order placed by the booking flow.
func (db *DB) RecordOrder(ctx context.Context, affiliateID string, date model.Date, slot model.Slot, status string) (int64, error) {
	if status == "" {
		status = "scheduled"
	}
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO pickup_orders (affiliate_id, pickup_date, slot, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		affiliateID, date, slot.String(), status, now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
