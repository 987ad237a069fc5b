package conversation

import (
	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// CommandStart restarts the conversation from any state.
const CommandStart = "/start"

// Override returns the state forced by a reserved payload, ignoring the stored one.
func Override(payload string) (state.State, bool) {
	switch payload {
	case CommandStart:
		return state.Start, true
	case keyboard.DataCart:
		return state.HandleCart, true
	case keyboard.DataPayment:
		return state.WaitingEmail, true
	case keyboard.DataMenu:
		return state.Start, true
	default:
		return "", false
	}
}

// Resolve picks the state that handles payload given the stored session.
// A chat without a session starts from the beginning.
func Resolve(payload string, stored *state.Session) state.State {
	if st, ok := Override(payload); ok {
		return st
	}
	if stored == nil {
		return state.Start
	}
	return stored.CurrentState
}
