// Package cache puts a Redis read-through layer in front of the schedule
// store. Only stored inputs (templates and settings) are cached; resolved
// availability depends on the current time and is always computed fresh.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pickupsched/internal/metrics"
	"pickupsched/internal/model"
	"pickupsched/internal/schedule"
)

const keyPrefix = "pickupsched"

// Store decorates a schedule.Store. Writes go to the underlying store first
// and then drop the cached entry.
type Store struct {
	schedule.Store
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New wraps next. A nil client or non-positive ttl disables caching.
func New(next schedule.Store, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		Store:  next,
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func templateKey(affiliateID string) string {
	return fmt.Sprintf("%s:template:%s", keyPrefix, affiliateID)
}

func settingsKey(affiliateID string) string {
	return fmt.Sprintf("%s:settings:%s", keyPrefix, affiliateID)
}

func (s *Store) enabled() bool {
	return s.redis != nil && s.ttl > 0
}

func (s *Store) readCache(ctx context.Context, kind, key string, out any) bool {
	if !s.enabled() {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.IncCacheLookup(kind, false)
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCacheLookup(kind, false)
		return false
	}
	metrics.IncCacheLookup(kind, true)
	return true
}

func (s *Store) writeCache(ctx context.Context, key string, val any) {
	if !s.enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

func (s *Store) LoadWeeklyTemplate(ctx context.Context, affiliateID string) (model.WeeklyTemplate, error) {
	key := templateKey(affiliateID)
	var t model.WeeklyTemplate
	if s.readCache(ctx, "template", key, &t) {
		return t, nil
	}
	t, err := s.Store.LoadWeeklyTemplate(ctx, affiliateID)
	if err != nil {
		return model.WeeklyTemplate{}, err
	}
	s.writeCache(ctx, key, t)
	return t, nil
}

func (s *Store) SaveWeeklyTemplate(ctx context.Context, affiliateID string, t model.WeeklyTemplate) error {
	if err := s.Store.SaveWeeklyTemplate(ctx, affiliateID, t); err != nil {
		return err
	}
	s.invalidate(ctx, templateKey(affiliateID))
	return nil
}

func (s *Store) LoadSettings(ctx context.Context, affiliateID string) (model.ScheduleSettings, error) {
	key := settingsKey(affiliateID)
	var st model.ScheduleSettings
	if s.readCache(ctx, "settings", key, &st) {
		return st, nil
	}
	st, err := s.Store.LoadSettings(ctx, affiliateID)
	if err != nil {
		return model.ScheduleSettings{}, err
	}
	s.writeCache(ctx, key, st)
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st model.ScheduleSettings) error {
	if err := s.Store.SaveSettings(ctx, st); err != nil {
		return err
	}
	s.invalidate(ctx, settingsKey(st.AffiliateID))
	return nil
}

// Ping reports whether Redis answers. A disabled cache is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Ping(ctx).Err()
}
