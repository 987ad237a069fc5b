// Package state holds the conversation states and their persistence.
package state

import (
	"context"
	"errors"
)

var (
	// ErrStateNotFound indicates that no session exists for the chat.
	ErrStateNotFound = errors.New("session state not found")
	// ErrUnknownState indicates a state name outside the enumeration.
	ErrUnknownState = errors.New("unknown state")
)

// Storage defines the persistence contract for conversation sessions.
type Storage interface {
	// GetState returns the session of the chat or ErrStateNotFound.
	GetState(ctx context.Context, chatID int64) (*Session, error)
	// SetState overwrites the current state of the chat.
	SetState(ctx context.Context, chatID int64, s State) error
	// ClearState removes the session of the chat.
	ClearState(ctx context.Context, chatID int64) error
	// GetAllStates returns every stored session.
	GetAllStates(ctx context.Context) ([]*Session, error)
}
