// Package handlers implements the per-state behavior of the fish shop conversation.
package handlers

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
)

// Telegram rejects photo captions longer than this many characters.
const captionLimit = 1024

// Shop implements conversation.Handlers on top of the commerce catalog.
type Shop struct {
	catalog      Catalog
	gateway      conversation.Gateway
	translations *i18n.Manager
	customers    CustomerRecorder
	validate     *validator.Validate
	log          *slog.Logger
}

var _ conversation.Handlers = (*Shop)(nil)

// NewShop wires the handlers. customers may be nil when no local registry is configured.
func NewShop(
	catalog Catalog,
	gateway conversation.Gateway,
	translations *i18n.Manager,
	customers CustomerRecorder,
	log *slog.Logger,
) *Shop {
	if log == nil {
		log = slog.Default()
	}

	return &Shop{
		catalog:      catalog,
		gateway:      gateway,
		translations: translations,
		customers:    customers,
		validate:     validator.New(),
		log:          log,
	}
}

func (s *Shop) translator(ev conversation.Event) i18n.Translator {
	return s.translations.Translator(ev.LanguageCode)
}

// dropCarrier removes the message that carried the pressed button.
// Telegram refuses to delete old messages, so a failure is only logged.
func (s *Shop) dropCarrier(ctx context.Context, ev conversation.Event) {
	if !ev.IsCallback() || ev.MessageID == 0 {
		return
	}

	if err := s.gateway.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		s.log.WarnContext(ctx, "failed to delete message",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int("message_id", ev.MessageID),
			slog.Any("error", err),
		)
	}
}

// acknowledge answers a callback query so the client stops its progress indicator.
func (s *Shop) acknowledge(ctx context.Context, ev conversation.Event, text string) {
	if !ev.IsCallback() || ev.CallbackID == "" {
		return
	}

	if err := s.gateway.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		s.log.WarnContext(ctx, "failed to answer callback",
			slog.Int64("chat_id", ev.ChatID),
			slog.Any("error", err),
		)
	}
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
