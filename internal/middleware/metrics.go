package middleware

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
)

// Metrics counts incoming Telegram updates by kind and outcome.
func Metrics(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordUpdate(updateKind(c), status)

		return err
	}
}

func updateKind(c telebot.Context) string {
	switch {
	case c == nil:
		return "unknown"
	case c.Callback() != nil:
		return "callback"
	case c.Message() != nil:
		return "text"
	default:
		return "other"
	}
}
