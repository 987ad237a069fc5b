package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/customer"
)

// fakeCatalog keeps carts in memory, keyed by cart id.
type fakeCatalog struct {
	mu        sync.Mutex
	products  []commerce.Product
	images    map[string]string
	carts     map[string][]commerce.CartItem
	customers []commerce.Customer
	nextLine  int
	err       error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []commerce.Product{
			{ID: "p1", Name: "Salmon", Description: "Fresh", Price: "$10.00", Stock: 7, ImageID: "img1"},
			{ID: "p2", Name: "Trout", Description: "River", Price: "$8.00", Stock: 3, ImageID: "img2"},
		},
		images: map[string]string{
			"img1": "https://cdn.example.com/salmon.jpg",
			"img2": "https://cdn.example.com/trout.jpg",
		},
		carts: make(map[string][]commerce.CartItem),
	}
}

func (c *fakeCatalog) ListProducts(context.Context) ([]commerce.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID string) (commerce.Product, error) {
	if c.err != nil {
		return commerce.Product{}, c.err
	}
	for _, p := range c.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return commerce.Product{}, &commerce.APIError{StatusCode: 404, Body: "not found"}
}

func (c *fakeCatalog) ImageURL(_ context.Context, imageID string) (string, error) {
	return c.images[imageID], nil
}

func (c *fakeCatalog) AddCartItem(_ context.Context, cartID, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	for i, item := range c.carts[cartID] {
		if item.ProductID == productID {
			c.carts[cartID][i].Quantity += quantity
			return nil
		}
	}

	for _, p := range c.products {
		if p.ID == productID {
			c.nextLine++
			c.carts[cartID] = append(c.carts[cartID], commerce.CartItem{
				ID:          fmt.Sprintf("line-%d", c.nextLine),
				ProductID:   p.ID,
				Name:        p.Name,
				Description: p.Description,
				Quantity:    quantity,
				UnitPrice:   p.Price,
			})
			return nil
		}
	}

	return &commerce.APIError{StatusCode: 404, Body: "not found"}
}

func (c *fakeCatalog) CartItems(_ context.Context, cartID string) (commerce.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return commerce.Cart{}, c.err
	}

	items := append([]commerce.CartItem(nil), c.carts[cartID]...)
	for i := range items {
		items[i].Amount = fmt.Sprintf("%d units", items[i].Quantity)
	}
	return commerce.Cart{Items: items, Total: "$42.00"}, nil
}

func (c *fakeCatalog) RemoveCartItem(_ context.Context, cartID, lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.carts[cartID]
	for i, item := range items {
		if item.ID == lineID {
			c.carts[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *fakeCatalog) CreateCustomer(_ context.Context, cust commerce.Customer) (commerce.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return commerce.Customer{}, c.err
	}

	c.customers = append(c.customers, cust)
	cust.ID = fmt.Sprintf("cust-%d", len(c.customers))
	cust.Password = ""
	return cust, nil
}

type sentMessage struct {
	ChatID   int64
	Text     string
	PhotoURL string
	Layout   *keyboard.Layout
}

type answer struct {
	CallbackID string
	Text       string
}

// recordingGateway captures everything the handlers send.
type recordingGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	deleted []int
	answers []answer
	sendErr error
}

func (g *recordingGateway) SendText(_ context.Context, chatID int64, text string, layout *keyboard.Layout) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sentMessage{ChatID: chatID, Text: text, Layout: layout})
	return nil
}

func (g *recordingGateway) SendPhoto(_ context.Context, chatID int64, photoURL, caption string, layout *keyboard.Layout) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sentMessage{ChatID: chatID, Text: caption, PhotoURL: photoURL, Layout: layout})
	return nil
}

func (g *recordingGateway) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *recordingGateway) AnswerCallback(_ context.Context, callbackID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.answers = append(g.answers, answer{CallbackID: callbackID, Text: text})
	return nil
}

func (g *recordingGateway) last() sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.sent) == 0 {
		return sentMessage{}
	}
	return g.sent[len(g.sent)-1]
}

type fakeRecorder struct {
	saved []*customer.Customer
	err   error
}

func (r *fakeRecorder) Save(_ context.Context, c *customer.Customer) error {
	r.saved = append(r.saved, c)
	return r.err
}
