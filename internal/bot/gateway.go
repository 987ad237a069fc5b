package bot

import (
	"context"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
)

const telegramAPI = "telegram"

// sender is the part of *telebot.Bot the gateway needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
	Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error
}

// Gateway delivers conversation replies through the Telegram Bot API.
type Gateway struct {
	api sender
}

var _ conversation.Gateway = (*Gateway)(nil)

func NewGateway(api sender) *Gateway {
	return &Gateway{api: api}
}

func (g *Gateway) SendText(ctx context.Context, chatID int64, text string, layout *keyboard.Layout) error {
	opts, err := g.options(layout)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := g.api.Send(telebot.ChatID(chatID), text, opts...); err != nil {
		return apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return nil
}

func (g *Gateway) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, layout *keyboard.Layout) error {
	opts, err := g.options(layout)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := &telebot.Photo{File: telebot.FromURL(photoURL), Caption: caption}
	if _, err := g.api.Send(telebot.ChatID(chatID), photo, opts...); err != nil {
		return apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := telebot.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	if err := g.api.Delete(msg); err != nil {
		return apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query; a non-empty text is shown as a transient notice.
func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp := &telebot.CallbackResponse{Text: text}
	if err := g.api.Respond(&telebot.Callback{ID: callbackID}, resp); err != nil {
		return apperrors.NewExternalAPIError(telegramAPI, err)
	}
	return nil
}

func (g *Gateway) options(layout *keyboard.Layout) ([]interface{}, error) {
	markup, err := layout.Build()
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid keyboard layout", err)
	}
	if markup == nil {
		return nil, nil
	}
	return []interface{}{markup}, nil
}
