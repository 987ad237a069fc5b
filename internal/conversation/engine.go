package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/state"
	"github.com/Proton-105/fish-shop-bot/pkg/logger"
	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
)

// FailurePolicy decides what the user sees when an event fails.
type FailurePolicy string

const (
	// PolicySilent only logs the failure.
	PolicySilent FailurePolicy = "silent"
	// PolicyNotify also sends the localized error message to the chat.
	PolicyNotify FailurePolicy = "notify"
)

// ParseFailurePolicy falls back to PolicySilent for unknown values.
func ParseFailurePolicy(value string) FailurePolicy {
	if FailurePolicy(value) == PolicyNotify {
		return PolicyNotify
	}
	return PolicySilent
}

// Engine resolves, dispatches and persists conversation state for each event.
type Engine struct {
	storage      state.Storage
	handlers     Handlers
	gateway      Gateway
	errHandler   *apperrors.Handler
	translations *i18n.Manager
	policy       atomic.Value
	log          *slog.Logger
}

func NewEngine(
	storage state.Storage,
	handlers Handlers,
	gateway Gateway,
	errHandler *apperrors.Handler,
	translations *i18n.Manager,
	policy FailurePolicy,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log)
	}

	e := &Engine{
		storage:      storage,
		handlers:     handlers,
		gateway:      gateway,
		errHandler:   errHandler,
		translations: translations,
		log:          log,
	}
	e.SetFailurePolicy(policy)

	return e
}

// SetFailurePolicy changes the policy for subsequent events.
func (e *Engine) SetFailurePolicy(policy FailurePolicy) {
	e.policy.Store(ParseFailurePolicy(string(policy)))
}

func (e *Engine) FailurePolicy() FailurePolicy {
	return e.policy.Load().(FailurePolicy)
}

// Handle processes one event. On failure nothing is persisted and the
// returned error is for observability only; callers must not retry.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	start := time.Now()
	log := e.log.With(
		slog.Int64("chat_id", ev.ChatID),
		slog.String("kind", ev.Kind.String()),
		slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
	)

	current, err := e.resolve(ctx, ev)
	if err != nil {
		return e.fail(ctx, ev, "", start, err)
	}

	next, err := e.dispatch(ctx, current, ev)
	if err != nil {
		return e.fail(ctx, ev, current, start, err)
	}

	if !next.Valid() {
		err = apperrors.NewConfigurationError(
			fmt.Sprintf("handler for %s returned an invalid state", current),
			fmt.Errorf("%w: %q", state.ErrUnknownState, next),
		)
		return e.fail(ctx, ev, current, start, err)
	}

	if err := e.storage.SetState(ctx, ev.ChatID, next); err != nil {
		return e.fail(ctx, ev, current, start, apperrors.NewStorageError(err))
	}

	metrics.RecordStateTransition(current.String(), next.String())
	metrics.RecordEvent(current.String(), "success", time.Since(start))
	log.DebugContext(ctx, "event handled", slog.String("state", current.String()), slog.String("next", next.String()))

	return nil
}

func (e *Engine) resolve(ctx context.Context, ev Event) (state.State, error) {
	if st, ok := Override(ev.Payload); ok {
		return st, nil
	}

	session, err := e.storage.GetState(ctx, ev.ChatID)
	switch {
	case errors.Is(err, state.ErrStateNotFound):
		return Resolve(ev.Payload, nil), nil
	case errors.Is(err, state.ErrUnknownState):
		return "", apperrors.NewResolutionError(ev.ChatID, err)
	case err != nil:
		return "", apperrors.NewStorageError(err)
	}

	return Resolve(ev.Payload, session), nil
}

func (e *Engine) dispatch(ctx context.Context, current state.State, ev Event) (state.State, error) {
	switch current {
	case state.Start:
		return e.handlers.Start(ctx, ev)
	case state.HandleMenu:
		return e.handlers.HandleMenu(ctx, ev)
	case state.HandleDescription:
		return e.handlers.HandleDescription(ctx, ev)
	case state.HandleCart:
		return e.handlers.HandleCart(ctx, ev)
	case state.WaitingEmail:
		return e.handlers.WaitingEmail(ctx, ev)
	case state.HandleUser:
		return e.handlers.HandleUser(ctx, ev)
	default:
		return "", apperrors.NewConfigurationError(
			fmt.Sprintf("no handler for state %q", current),
			state.ErrUnknownState,
		)
	}
}

func (e *Engine) fail(ctx context.Context, ev Event, current state.State, start time.Time, err error) error {
	metrics.RecordEvent(current.String(), "error", time.Since(start))

	userMessage, _ := e.errHandler.Handle(ctx, err)

	if e.FailurePolicy() != PolicyNotify || e.gateway == nil {
		return err
	}

	if e.translations != nil {
		key := "errors." + apperrors.CodeOf(err)
		if text := e.translations.Translator(ev.LanguageCode).T(key); text != key {
			userMessage = text
		}
	}

	if sendErr := e.gateway.SendText(ctx, ev.ChatID, userMessage, nil); sendErr != nil {
		e.log.WarnContext(ctx, "failed to notify user about error",
			slog.Int64("chat_id", ev.ChatID),
			slog.Any("error", sendErr),
		)
	}

	return err
}
