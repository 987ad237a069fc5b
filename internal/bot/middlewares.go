package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/pkg/logger"
)

// EventMiddleware decorates the processing of a queued event.
type EventMiddleware func(next EventHandler) EventHandler

// Chain wraps h so that the first middleware runs outermost.
func Chain(h EventHandler, middlewares ...EventMiddleware) EventHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RecoveryMiddleware keeps a panicking update handler from taking down the poller.
func RecoveryMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in update handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware logs the outcome and duration of every event.
func LoggingMiddleware(log *slog.Logger) EventMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next EventHandler) EventHandler {
		return func(ctx context.Context, ev conversation.Event) error {
			start := time.Now()
			attrs := []any{
				slog.Int64("chat_id", ev.ChatID),
				slog.String("kind", ev.Kind.String()),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			}

			log.DebugContext(ctx, "handling event", append(attrs, slog.String("payload", ev.Payload))...)
			err := next(ctx, ev)

			attrs = append(attrs, slog.Duration("duration", time.Since(start)))
			if err != nil {
				log.InfoContext(ctx, "event failed", append(attrs, slog.Any("error", err))...)
				return err
			}

			log.InfoContext(ctx, "handled event", attrs...)
			return nil
		}
	}
}
