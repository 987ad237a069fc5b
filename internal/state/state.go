package state

import (
	"fmt"
	"time"
)

// State names one stage of the shopping conversation.
type State string

const (
	// Start renders the product list.
	Start State = "START"
	// HandleMenu expects a product selection.
	HandleMenu State = "HANDLE_MENU"
	// HandleDescription expects a quantity selection for the shown product.
	HandleDescription State = "HANDLE_DESCRIPTION"
	// HandleCart shows the cart and expects removals or navigation.
	HandleCart State = "HANDLE_CART"
	// WaitingEmail asks the user for an email address.
	WaitingEmail State = "WAITING_EMAIL"
	// HandleUser expects the email address as free text.
	HandleUser State = "HANDLE_USER"
)

var all = []State{Start, HandleMenu, HandleDescription, HandleCart, WaitingEmail, HandleUser}

// All returns every state of the enumeration in conversation order.
func All() []State {
	out := make([]State, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s belongs to the enumeration.
func (s State) Valid() bool {
	for _, known := range all {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// Parse converts a persisted state name into a State.
func Parse(name string) (State, error) {
	s := State(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return s, nil
}

// Session is the persisted conversation position of one chat.
type Session struct {
	ChatID       int64     `json:"chat_id"`
	CurrentState State     `json:"current_state"`
	UpdatedAt    time.Time `json:"updated_at"`
}
