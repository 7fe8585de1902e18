// Package notify delivers scheduling events to operators.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pickupsched/internal/events"
	"pickupsched/internal/model"
)

// TelegramSender is the part of tgbotapi.BotAPI the sink uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// LogSink writes every event to the log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notify").Logger()}
}

func (s *LogSink) Handle(e events.Event) error {
	s.logger.Info().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("affiliate_id", e.AffiliateID).
		RawJSON("payload", payloadOrNull(e.Payload)).
		Msg("scheduling event")
	return nil
}

func payloadOrNull(p []byte) []byte {
	if len(p) == 0 {
		return []byte("null")
	}
	return p
}

// TelegramSink posts demand warnings to an operations chat. Messages over
// the rate limit are dropped.
type TelegramSink struct {
	sender  TelegramSender
	chatID  int64
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewTelegramSink(sender TelegramSender, chatID int64, limiter *rate.Limiter, logger zerolog.Logger) *TelegramSink {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(1), 5)
	}
	return &TelegramSink{
		sender:  sender,
		chatID:  chatID,
		limiter: limiter,
		logger:  logger.With().Str("component", "telegram").Logger(),
	}
}

// Subscribe registers the sink for the events it reports.
func (s *TelegramSink) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.DemandWarning, s.Handle)
}

func (s *TelegramSink) Handle(e events.Event) error {
	if e.Type != events.DemandWarning {
		return nil
	}

	var w model.ConflictWarning
	if err := e.Decode(&w); err != nil {
		return err
	}

	if !s.limiter.Allow() {
		s.logger.Warn().Str("affiliate_id", e.AffiliateID).Msg("alert rate limit reached, dropping message")
		return nil
	}

	msg := tgbotapi.NewMessage(s.chatID, FormatWarning(e.AffiliateID, w))
	if _, err := s.sender.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

// FormatWarning renders a demand warning for humans.
func FormatWarning(affiliateID string, w model.ConflictWarning) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Pickup capacity warning\n\n")
	fmt.Fprintf(&b, "Affiliate: %s\n", affiliateID)
	fmt.Fprintf(&b, "Date: %s\n", w.Date)
	fmt.Fprintf(&b, "Outstanding orders: %d\n", w.Outstanding)
	fmt.Fprintf(&b, "Remaining capacity: %d\n", w.Capacity)
	if w.Message != "" {
		fmt.Fprintf(&b, "\n%s", w.Message)
	}
	return b.String()
}
