// Package conversation drives the per-chat state machine: it resolves the
// state of an incoming event, runs exactly one state handler and persists
// the state that handler returns.
package conversation

import (
	"context"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// Kind tells whether an event came from typed text or an inline button.
type Kind int

const (
	KindText Kind = iota
	KindCallback
)

func (k Kind) String() string {
	if k == KindCallback {
		return "callback"
	}
	return "text"
}

// Event is a single user action normalized from the chat transport.
type Event struct {
	Kind       Kind
	ChatID     int64
	Payload    string
	CallbackID string

	// MessageID is the message carrying the pressed button, or the user's own text message.
	MessageID    int
	FirstName    string
	LanguageCode string
}

func (e Event) IsCallback() bool {
	return e.Kind == KindCallback
}

// Handlers holds one method per conversation state. Each method returns the
// state to persist when it succeeds.
type Handlers interface {
	Start(ctx context.Context, ev Event) (state.State, error)
	HandleMenu(ctx context.Context, ev Event) (state.State, error)
	HandleDescription(ctx context.Context, ev Event) (state.State, error)
	HandleCart(ctx context.Context, ev Event) (state.State, error)
	WaitingEmail(ctx context.Context, ev Event) (state.State, error)
	HandleUser(ctx context.Context, ev Event) (state.State, error)
}

// Gateway sends replies through the chat platform.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, layout *keyboard.Layout) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, layout *keyboard.Layout) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
