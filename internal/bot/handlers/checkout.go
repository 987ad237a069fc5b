package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/internal/customer"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// WaitingEmail asks for the customer's email.
func (s *Shop) WaitingEmail(ctx context.Context, ev conversation.Event) (state.State, error) {
	if err := s.gateway.SendText(ctx, ev.ChatID, s.translator(ev).T("checkout.ask_email"), nil); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, "")

	return state.HandleUser, nil
}

// HandleUser registers the customer once a valid email arrives.
func (s *Shop) HandleUser(ctx context.Context, ev conversation.Event) (state.State, error) {
	t := s.translator(ev)

	email, ok := s.normalizeEmail(ev.Payload)
	if !ok {
		if err := s.gateway.SendText(ctx, ev.ChatID, t.T("checkout.invalid_email"), nil); err != nil {
			return "", err
		}
		s.acknowledge(ctx, ev, "")
		return state.HandleUser, nil
	}

	created, err := s.catalog.CreateCustomer(ctx, commerce.Customer{
		Name:     username(ev),
		Email:    email,
		Password: strconv.FormatInt(ev.ChatID, 10),
	})
	if err != nil {
		return "", err
	}

	s.record(ctx, ev.ChatID, created)

	if err := s.gateway.SendText(ctx, ev.ChatID, t.T("checkout.thanks"), keyboard.ContinueShopping(t)); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, "")

	return state.Start, nil
}

func (s *Shop) normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", false
	}

	at := strings.LastIndex(email, "@")
	return email[:at] + "@" + strings.ToLower(email[at+1:]), true
}

func (s *Shop) record(ctx context.Context, chatID int64, created commerce.Customer) {
	if s.customers == nil {
		return
	}

	err := s.customers.Save(ctx, &customer.Customer{
		ChatID:     chatID,
		ExternalID: created.ID,
		Name:       created.Name,
		Email:      created.Email,
	})
	if err != nil {
		s.log.WarnContext(ctx, "failed to record customer locally",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
}

func username(ev conversation.Event) string {
	name := strings.TrimSpace(ev.FirstName)
	if name == "" {
		name = "customer"
	}
	return name + "_" + strconv.FormatInt(ev.ChatID, 10)
}
