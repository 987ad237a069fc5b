package bot

import (
	"context"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/pkg/logger"
)

type submitter interface {
	Submit(ctx context.Context, ev conversation.Event) error
}

// Router turns Telegram updates into conversation events and queues them.
type Router struct {
	queue submitter
	log   *slog.Logger
}

func NewRouter(queue submitter, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{queue: queue, log: log}
}

// Route is registered for text messages, callbacks and the start command.
func (r *Router) Route(c telebot.Context) error {
	ev, ok := EventFromContext(c)
	if !ok {
		r.log.Debug("ignoring update without chat")
		return nil
	}

	ctx := logger.WithCorrelationID(context.Background())
	if err := r.queue.Submit(ctx, ev); err != nil {
		r.log.WarnContext(ctx, "failed to queue event",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}

// EventFromContext normalizes a telebot update. Updates that do not belong
// to a chat (inline-mode callbacks, channel posts without a sender) yield false.
func EventFromContext(c telebot.Context) (conversation.Event, bool) {
	if c == nil {
		return conversation.Event{}, false
	}

	if cb := c.Callback(); cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return conversation.Event{}, false
		}

		ev := conversation.Event{
			Kind:       conversation.KindCallback,
			ChatID:     cb.Message.Chat.ID,
			Payload:    cb.Data,
			CallbackID: cb.ID,
			MessageID:  cb.Message.ID,
		}
		fillSender(&ev, cb.Sender)
		return ev, true
	}

	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return conversation.Event{}, false
	}

	ev := conversation.Event{
		Kind:      conversation.KindText,
		ChatID:    msg.Chat.ID,
		Payload:   normalizeText(msg.Text),
		MessageID: msg.ID,
	}
	fillSender(&ev, msg.Sender)
	return ev, true
}

func fillSender(ev *conversation.Event, user *telebot.User) {
	if user == nil {
		return
	}
	ev.FirstName = user.FirstName
	ev.LanguageCode = user.LanguageCode
}

// normalizeText folds "/start@shopbot" and "/start <payload>" into the bare command.
func normalizeText(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}

	command, _, _ := strings.Cut(fields[0], "@")
	if command == conversation.CommandStart {
		return conversation.CommandStart
	}
	return text
}
