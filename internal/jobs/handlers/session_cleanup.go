// Package handlers holds the asynq task handlers.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/fish-shop-bot/internal/jobs"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// SessionStore lists sessions and clears the ones nobody wrote since.
type SessionStore interface {
	GetAllStates(ctx context.Context) ([]*state.Session, error)
	ClearStateIfUnchanged(ctx context.Context, seen *state.Session) (bool, error)
}

// SessionCleanupHandler clears sessions that have been idle too long. A
// purged chat starts over from START on its next message.
type SessionCleanupHandler struct {
	storage SessionStore
	log     *slog.Logger
	now     func() time.Time
}

func NewSessionCleanupHandler(storage SessionStore, log *slog.Logger) *SessionCleanupHandler {
	if log == nil {
		log = slog.Default()
	}

	return &SessionCleanupHandler{
		storage: storage,
		log:     log,
		now:     time.Now,
	}
}

func (h *SessionCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.SessionCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "session cleanup: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	purged, err := h.Purge(ctx, payload.IdleTimeout)
	if err != nil {
		return err
	}

	h.log.InfoContext(ctx, "session cleanup finished",
		slog.Int("purged", purged),
		slog.Duration("idle_timeout", payload.IdleTimeout),
	)
	return nil
}

// Purge removes every session last updated before now minus idleTimeout.
// A session rewritten after it was listed survives.
func (h *SessionCleanupHandler) Purge(ctx context.Context, idleTimeout time.Duration) (int, error) {
	if idleTimeout <= 0 {
		return 0, nil
	}

	sessions, err := h.storage.GetAllStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	cutoff := h.now().Add(-idleTimeout)
	purged := 0
	for _, session := range sessions {
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}

		cleared, err := h.storage.ClearStateIfUnchanged(ctx, session)
		if err != nil {
			h.log.WarnContext(ctx, "session cleanup: failed to clear session",
				slog.Int64("chat_id", session.ChatID),
				slog.Any("error", err),
			)
			continue
		}
		if cleared {
			purged++
		}
	}

	return purged, nil
}
