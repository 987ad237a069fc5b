package handlers

import (
	"context"
	"fmt"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

// Start shows the product list.
func (s *Shop) Start(ctx context.Context, ev conversation.Event) (state.State, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return "", err
	}

	t := s.translator(ev)
	if err := s.gateway.SendText(ctx, ev.ChatID, t.T("menu.choose"), keyboard.ProductsMenu(t, products)); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, "")
	s.dropCarrier(ctx, ev)

	return state.HandleMenu, nil
}

// HandleMenu shows the card of the chosen product.
func (s *Shop) HandleMenu(ctx context.Context, ev conversation.Event) (state.State, error) {
	if !ev.IsCallback() {
		return "", apperrors.NewStateError("product menu expects a button press")
	}

	product, err := s.catalog.GetProduct(ctx, ev.Payload)
	if err != nil {
		return "", err
	}

	imageURL, err := s.catalog.ImageURL(ctx, product.ImageID)
	if err != nil {
		return "", err
	}

	t := s.translator(ev)
	caption := truncate(productCaption(t, product), captionLimit)
	if err := s.gateway.SendPhoto(ctx, ev.ChatID, imageURL, caption, keyboard.ProductCard(t, product.ID)); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, "")
	s.dropCarrier(ctx, ev)

	return state.HandleDescription, nil
}

// HandleDescription adds the chosen weight of a product to the chat's cart.
func (s *Shop) HandleDescription(ctx context.Context, ev conversation.Event) (state.State, error) {
	if !ev.IsCallback() {
		return "", apperrors.NewStateError("product card expects a button press")
	}

	quantity, productID, err := keyboard.ParseQuantity(ev.Payload)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid quantity selection: %v", err))
	}

	if err := s.catalog.AddCartItem(ctx, commerce.CartID(ev.ChatID), productID, quantity); err != nil {
		return "", err
	}

	s.acknowledge(ctx, ev, s.translator(ev).Format("product.added", i18n.Vars{"Quantity": quantity}))

	return state.HandleDescription, nil
}

func productCaption(t i18n.Translator, product commerce.Product) string {
	return t.Format("product.card", i18n.Vars{
		"Name":        product.Name,
		"Price":       product.Price,
		"Stock":       product.Stock,
		"Description": product.Description,
	})
}
