package handlers

import (
	"context"

	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/customer"
)

// Catalog is the commerce backend as seen by the shop handlers.
type Catalog interface {
	ListProducts(ctx context.Context) ([]commerce.Product, error)
	GetProduct(ctx context.Context, productID string) (commerce.Product, error)
	ImageURL(ctx context.Context, imageID string) (string, error)
	AddCartItem(ctx context.Context, cartID, productID string, quantity int) error
	CartItems(ctx context.Context, cartID string) (commerce.Cart, error)
	RemoveCartItem(ctx context.Context, cartID, lineID string) error
	CreateCustomer(ctx context.Context, c commerce.Customer) (commerce.Customer, error)
}

// CustomerRecorder keeps a local copy of customers registered through the bot.
type CustomerRecorder interface {
	Save(ctx context.Context, c *customer.Customer) error
}
