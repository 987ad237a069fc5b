package handlers

import (
	"context"
	"strings"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// HandleCart shows the cart, removing a line first when asked to.
func (s *Shop) HandleCart(ctx context.Context, ev conversation.Event) (state.State, error) {
	cartID := commerce.CartID(ev.ChatID)

	if lineID, ok := keyboard.ParseRemove(ev.Payload); ok {
		if err := s.catalog.RemoveCartItem(ctx, cartID, lineID); err != nil {
			return "", err
		}
	}

	cart, err := s.catalog.CartItems(ctx, cartID)
	if err != nil {
		return "", err
	}

	t := s.translator(ev)
	if err := s.gateway.SendText(ctx, ev.ChatID, cartText(t, cart), keyboard.CartActions(t, cart.Items)); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, "")
	s.dropCarrier(ctx, ev)

	return state.HandleCart, nil
}

func cartText(t i18n.Translator, cart commerce.Cart) string {
	if len(cart.Items) == 0 {
		return t.T("cart.empty")
	}

	lines := make([]string, 0, len(cart.Items)+1)
	for _, item := range cart.Items {
		lines = append(lines, t.Format("cart.line", i18n.Vars{
			"Name":        item.Name,
			"Description": item.Description,
			"Price":       item.UnitPrice,
			"Quantity":    item.Quantity,
			"Amount":      item.Amount,
		}))
	}
	lines = append(lines, t.Format("cart.total", i18n.Vars{"Total": cart.Total}))

	return strings.Join(lines, "\n\n")
}
