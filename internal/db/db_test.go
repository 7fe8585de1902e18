package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickupsched/internal/config"
	"pickupsched/internal/model"
)

var (
	tuesday  = model.NewDate(2026, time.October, 13)
	thursday = tuesday.AddDays(2)
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "sched.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWeeklyTemplate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.LoadWeeklyTemplate(ctx, "aff-1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	ok, err := db.HasSchedule(ctx, "aff-1")
	require.NoError(t, err)
	assert.False(t, ok)

	tpl := model.DefaultWeeklyTemplate().With(model.Saturday, model.DayTemplate{
		Enabled: true,
		Slots:   model.SlotFlags{Morning: true},
	})
	require.NoError(t, db.SaveWeeklyTemplate(ctx, "aff-1", tpl))

	got, err := db.LoadWeeklyTemplate(ctx, "aff-1")
	require.NoError(t, err)
	assert.Equal(t, tpl, got)

	// Full replace.
	require.NoError(t, db.SaveWeeklyTemplate(ctx, "aff-1", model.DefaultWeeklyTemplate()))
	got, err = db.LoadWeeklyTemplate(ctx, "aff-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeeklyTemplate(), got)

	ok, err = db.HasSchedule(ctx, "aff-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := db.ListAffiliates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aff-1"}, ids)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.LoadSettings(ctx, "aff-1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	want := model.ScheduleSettings{AffiliateID: "aff-1", AdvanceBookingDays: 2, MaxBookingDays: 14, Timezone: "America/Denver"}
	require.NoError(t, db.SaveSettings(ctx, want))

	got, err := db.LoadSettings(ctx, "aff-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AdvanceBookingDays)
	assert.Equal(t, 14, got.MaxBookingDays)
	assert.Equal(t, "America/Denver", got.Timezone)
	assert.False(t, got.UpdatedAt.IsZero())

	want.Timezone = ""
	want.MaxBookingDays = 60
	require.NoError(t, db.SaveSettings(ctx, want))
	got, err = db.LoadSettings(ctx, "aff-1")
	require.NoError(t, err)
	assert.Equal(t, 60, got.MaxBookingDays)
	assert.Empty(t, got.Timezone)
}

func TestUpsertException_ReplacesOnSameDate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	first, err := db.UpsertException(ctx, model.DateException{
		ID: "exc-1", AffiliateID: "aff-1", Date: thursday, Type: model.ExceptionBlock, Reason: "Holiday",
	})
	require.NoError(t, err)
	assert.Equal(t, "exc-1", first.ID)
	assert.Nil(t, first.TimeSlots)
	assert.Equal(t, "Holiday", first.Reason)

	second, err := db.UpsertException(ctx, model.DateException{
		ID: "exc-2", AffiliateID: "aff-1", Date: thursday, Type: model.ExceptionOverride,
		TimeSlots: &model.SlotFlags{Morning: true, Evening: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "exc-2", second.ID)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at survives replacement")

	list, err := db.LoadExceptions(ctx, "aff-1", tuesday, thursday.AddDays(7))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "exc-2", list[0].ID)
	assert.Equal(t, thursday, list[0].Date)
	assert.Equal(t, model.ExceptionOverride, list[0].Type)
	assert.Equal(t, &model.SlotFlags{Morning: true, Evening: true}, list[0].TimeSlots)
	assert.Empty(t, list[0].Reason)

	_, err = db.GetException(ctx, "aff-1", "exc-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpsertException_AllFalseOverrideKeepsFlags(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	stored, err := db.UpsertException(ctx, model.DateException{
		AffiliateID: "aff-1", Date: thursday, Type: model.ExceptionOverride, TimeSlots: &model.SlotFlags{},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	require.NotNil(t, stored.TimeSlots)
	assert.Equal(t, model.SlotFlags{}, *stored.TimeSlots)
}

func TestLoadExceptions_RangeAndIsolation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	for i, d := range []model.Date{tuesday, thursday, thursday.AddDays(10)} {
		_, err := db.UpsertException(ctx, model.DateException{
			AffiliateID: "aff-1", Date: d, Type: model.ExceptionBlock, Reason: string(rune('a' + i)),
		})
		require.NoError(t, err)
	}
	_, err := db.UpsertException(ctx, model.DateException{AffiliateID: "aff-2", Date: thursday, Type: model.ExceptionBlock})
	require.NoError(t, err)

	list, err := db.LoadExceptions(ctx, "aff-1", tuesday, thursday)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, tuesday, list[0].Date)
	assert.Equal(t, thursday, list[1].Date)

	list, err = db.LoadExceptions(ctx, "aff-1", thursday.AddDays(1), thursday.AddDays(9))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteException(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	stored, err := db.UpsertException(ctx, model.DateException{AffiliateID: "aff-1", Date: thursday, Type: model.ExceptionBlock})
	require.NoError(t, err)

	assert.ErrorIs(t, db.DeleteException(ctx, "aff-2", stored.ID), model.ErrNotFound)
	require.NoError(t, db.DeleteException(ctx, "aff-1", stored.ID))
	assert.ErrorIs(t, db.DeleteException(ctx, "aff-1", stored.ID), model.ErrNotFound)
}

func TestApplyHolidays(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, db.SaveWeeklyTemplate(ctx, "aff-1", model.DefaultWeeklyTemplate()))
	require.NoError(t, db.SaveWeeklyTemplate(ctx, "aff-2", model.DefaultWeeklyTemplate()))

	xmas := model.NewDate(2026, time.December, 25)
	// aff-2 already opened Christmas morning; the calendar must not clobber it.
	_, err := db.UpsertException(ctx, model.DateException{
		AffiliateID: "aff-2", Date: xmas, Type: model.ExceptionOverride, TimeSlots: &model.SlotFlags{Morning: true},
	})
	require.NoError(t, err)

	holidays := []config.Holiday{
		{Date: model.NewDate(2026, time.November, 26), Name: "Thanksgiving"},
		{Date: xmas, Name: "Christmas Day"},
	}
	inserted, err := db.ApplyHolidays(ctx, holidays)
	require.NoError(t, err)
	require.Len(t, inserted, 3)
	for _, exc := range inserted {
		assert.Equal(t, model.ExceptionBlock, exc.Type)
		assert.NotEmpty(t, exc.ID)
		assert.False(t, exc.AffiliateID == "aff-2" && exc.Date == xmas, "existing exception reported as inserted")
	}

	// Re-applying is a no-op.
	inserted, err = db.ApplyHolidays(ctx, holidays)
	require.NoError(t, err)
	assert.Empty(t, inserted)

	list, err := db.LoadExceptions(ctx, "aff-2", xmas, xmas)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ExceptionOverride, list[0].Type)

	list, err = db.LoadExceptions(ctx, "aff-1", xmas, xmas)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ExceptionBlock, list[0].Type)
	assert.Equal(t, "Christmas Day", list[0].Reason)
}

func TestCountOutstandingOrders(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	for _, status := range []string{"", "scheduled", OrderCompleted, OrderCanceled} {
		_, err := db.RecordOrder(ctx, "aff-1", thursday, model.Morning, status)
		require.NoError(t, err)
	}
	_, err := db.RecordOrder(ctx, "aff-1", tuesday, model.Evening, "")
	require.NoError(t, err)

	n, err := db.CountOutstandingOrders(ctx, "aff-1", thursday)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.CountOutstandingOrders(ctx, "aff-2", thursday)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackupService(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.SaveWeeklyTemplate(ctx, "aff-1", model.DefaultWeeklyTemplate()))

	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: dir, RetentionDays: 7}, zerolog.Nop())

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	restored, err := NewDB(path, zerolog.Nop())
	require.NoError(t, err)
	defer restored.Close()
	ok, err := restored.HasSchedule(ctx, "aff-1")
	require.NoError(t, err)
	assert.True(t, ok)

	old := filepath.Join(dir, "backup_20200101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	stale := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, stale, stale))

	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o600))
	require.NoError(t, os.Chtimes(unrelated, stale, stale))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, path)
}
