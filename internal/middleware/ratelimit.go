// Package middleware holds the telebot and HTTP middlewares shared by the bot process.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-chat rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter      ratelimit.Limiter
	rules        *ratelimit.Rules
	translations *i18n.Manager
	log          *slog.Logger
	now          func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(
	limiter ratelimit.Limiter,
	rules *ratelimit.Rules,
	translations *i18n.Manager,
	log *slog.Logger,
) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter:      limiter,
		rules:        rules,
		translations: translations,
		log:          log,
		now:          time.Now,
	}
}

// Handle returns a telebot middleware that drops updates of chats over their limit.
// A limiter failure lets the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		chat := c.Chat()
		if chat == nil || m.rules.IsWhitelisted(chat.ID) {
			return next(c)
		}

		limit, window := m.rules.PerChat()
		result, err := m.limiter.Check(context.Background(), ratelimit.ChatKey(chat.ID), limit, window)
		switch {
		case err == nil:
			return next(c)
		case errors.Is(err, ratelimit.ErrLimitExceeded):
			return m.reject(c, chat.ID, result)
		default:
			m.log.Warn("rate limiter error", slog.Int64("chat_id", chat.ID), slog.Any("error", err))
			return next(c)
		}
	}
}

func (m *RateLimitMiddleware) reject(c telebot.Context, chatID int64, result *ratelimit.Result) error {
	appErr := apperrors.NewRateLimitError(result.RetryAfter(m.now()))
	m.log.Warn("rate limit exceeded",
		slog.Int64("chat_id", chatID),
		slog.String("code", appErr.Code),
		slog.String("error", appErr.Message),
	)

	text := appErr.UserMessage
	if m.translations != nil {
		lang := ""
		if sender := c.Sender(); sender != nil {
			lang = sender.LanguageCode
		}
		text = m.translations.Translator(lang).T("errors." + appErr.Code)
	}

	if cb := c.Callback(); cb != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text})
	}
	return c.Send(text)
}
