// Package bot connects the conversation engine to Telegram.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/pkg/config"
)

const ModeWebhook = "webhook"

// Bot wraps telebot.Bot with the event pipeline of the shop.
type Bot struct {
	telebot   *telebot.Bot
	cfg       config.BotConfig
	sequencer *Sequencer
	log       *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
// Updates are read synchronously; ordering per chat is kept by the Sequencer.
func New(cfg config.BotConfig, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token:       cfg.Token,
		Synchronous: true,
		OnError: func(err error, c telebot.Context) {
			attrs := []any{slog.Any("error", err)}
			if c != nil && c.Chat() != nil {
				attrs = append(attrs, slog.Int64("chat_id", c.Chat().ID))
			}
			log.Error("telegram update failed", attrs...)
		},
	}

	if cfg.Mode == ModeWebhook {
		webhook := &telebot.Webhook{Listen: cfg.WebhookListen}
		if cfg.WebhookURL != "" {
			webhook.Endpoint = &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL}
		}
		settings.Poller = webhook
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot: tb,
		cfg:     cfg,
		log:     log,
	}
	b.telebot.Use(RecoveryMiddleware(log))

	return b, nil
}

// Gateway returns the reply channel backed by this bot.
func (b *Bot) Gateway() *Gateway {
	return NewGateway(b.telebot)
}

// Use registers update-level middlewares such as rate limiting.
func (b *Bot) Use(middlewares ...telebot.MiddlewareFunc) {
	b.telebot.Use(middlewares...)
}

// Mount starts the worker pool running handle and routes updates into it.
func (b *Bot) Mount(handle EventHandler, middlewares ...EventMiddleware) {
	b.sequencer = NewSequencer(Chain(handle, middlewares...), SequencerOptions{
		Workers:   b.cfg.Workers,
		QueueSize: b.cfg.QueueSize,
		Timeout:   b.cfg.HandlerTimeout,
	}, b.log)

	router := NewRouter(b.sequencer, b.log)
	b.telebot.Handle(conversation.CommandStart, router.Route)
	b.telebot.Handle(telebot.OnText, router.Route)
	b.telebot.Handle(telebot.OnCallback, router.Route)
}

// Start runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	b.log.Info("telegram bot started", slog.String("mode", b.mode()))
	b.telebot.Start()
}

// Stop stops polling and waits for queued events to finish.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()

	if b.sequencer != nil {
		b.sequencer.Close()
	}
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) mode() string {
	if b.cfg.Mode == ModeWebhook {
		return ModeWebhook
	}
	return "polling"
}
