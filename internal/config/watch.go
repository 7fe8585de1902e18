package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HolidayWatcher keeps the holiday calendar applied. The file is polled and
// re-applied when its content changes. The current calendar is also
// re-applied every reapply interval so affiliates enabled since the last
// pass get their blocks and the applied range follows today forward.
type HolidayWatcher struct {
	path    string
	poll    time.Duration
	reapply time.Duration
	logger  zerolog.Logger
	apply   func(*HolidayCalendar)
	now     func() time.Time

	mu      sync.Mutex
	digest  [sha256.Size]byte
	current *HolidayCalendar
	applied time.Time
}

// NewHolidayWatcher builds a watcher for path. apply receives every calendar
// that should be (re)applied; it is never called concurrently.
func NewHolidayWatcher(path string, poll, reapply time.Duration, logger zerolog.Logger, apply func(*HolidayCalendar)) *HolidayWatcher {
	if path == "" {
		path = DefaultHolidaysPath
	}
	if poll <= 0 {
		poll = 30 * time.Second
	}
	if reapply <= 0 {
		reapply = 6 * time.Hour
	}
	return &HolidayWatcher{
		path:    path,
		poll:    poll,
		reapply: reapply,
		logger:  logger.With().Str("component", "holidays").Str("path", path).Logger(),
		apply:   apply,
		now:     time.Now,
	}
}

// Calendar returns the last calendar that loaded successfully.
func (w *HolidayWatcher) Calendar() *HolidayCalendar {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Check reads the file once and applies the calendar if its content changed
// or the reapply interval elapsed. A file that fails to load keeps the
// previous calendar in force; the error is returned.
func (w *HolidayWatcher) Check() (applied bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("read holidays config: %w", err)
	}

	digest := sha256.Sum256(data)
	changed := w.current == nil || digest != w.digest
	if changed {
		cal, err := parseHolidayCalendar(data)
		if err != nil {
			return false, err
		}
		w.current = cal
		w.digest = digest
		w.logger.Info().Int("holidays", len(cal.Holidays)).Msg("holiday calendar loaded")
	} else if w.now().Sub(w.applied) < w.reapply {
		return false, nil
	}

	w.applied = w.now()
	if w.apply != nil {
		w.apply(w.current)
	}
	return true, nil
}

// Run loads the calendar, then polls until ctx is done. The initial load
// must succeed; later failures are logged and retried on the next tick.
func (w *HolidayWatcher) Run(ctx context.Context) error {
	if _, err := w.Check(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.poll)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.Check(); err != nil {
					w.logger.Warn().Err(err).Msg("holiday calendar reload failed, keeping previous")
				}
			}
		}
	}()
	return nil
}
