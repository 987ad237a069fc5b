package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.moltin.com"
	defaultTimeout = 10 * time.Second
	apiName        = "commerce"
)

// Tokens yields bearer tokens for API calls. *TokenManager satisfies it.
type Tokens interface {
	Token(ctx context.Context) (string, error)
}

// Client is the catalog, cart and customer API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     Tokens
	timeout    time.Duration
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(breaker *apperrors.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func NewClient(tokens Tokens, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		timeout:    defaultTimeout,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = apperrors.NewCircuitBreaker(apperrors.DefaultBreakerSettings)
	}

	return c
}

// ListProducts returns the catalog in backend order.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var resp productListResponse
	if err := c.do(ctx, "list_products", http.MethodGet, "/v2/products", nil, &resp); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(resp.Data))
	for _, p := range resp.Data {
		products = append(products, p.toProduct())
	}

	return products, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, productID string) (Product, error) {
	var resp productResponse
	if err := c.do(ctx, "get_product", http.MethodGet, "/v2/products/"+url.PathEscape(productID), nil, &resp); err != nil {
		return Product{}, err
	}

	return resp.Data.toProduct(), nil
}

// ImageURL resolves a file id to a public link.
func (c *Client) ImageURL(ctx context.Context, imageID string) (string, error) {
	var resp fileResponse
	if err := c.do(ctx, "get_file", http.MethodGet, "/v2/files/"+url.PathEscape(imageID), nil, &resp); err != nil {
		return "", err
	}

	return resp.Data.Link.Href, nil
}

// AddCartItem adds quantity units of productID to the cart. Repeated calls accumulate.
func (c *Client) AddCartItem(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("quantity must be positive, got %d", quantity))
	}

	var body addCartItemRequest
	body.Data.ID = productID
	body.Data.Type = "cart_item"
	body.Data.Quantity = quantity

	return c.do(ctx, "add_cart_item", http.MethodPost, cartItemsPath(cartID), body, nil)
}

// CartItems returns the lines of a cart and its total.
func (c *Client) CartItems(ctx context.Context, cartID string) (Cart, error) {
	var resp cartItemsResponse
	if err := c.do(ctx, "cart_items", http.MethodGet, cartItemsPath(cartID), nil, &resp); err != nil {
		return Cart{}, err
	}

	cart := Cart{
		Items: make([]CartItem, 0, len(resp.Data)),
		Total: resp.Meta.DisplayPrice.WithTax.Formatted,
	}
	for _, item := range resp.Data {
		cart.Items = append(cart.Items, CartItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.Meta.DisplayPrice.WithTax.Unit.Formatted,
			Amount:      item.Meta.DisplayPrice.WithTax.Value.Formatted,
		})
	}

	return cart, nil
}

// RemoveCartItem deletes a cart line by its line id.
func (c *Client) RemoveCartItem(ctx context.Context, cartID, lineID string) error {
	return c.do(ctx, "remove_cart_item", http.MethodDelete, cartItemsPath(cartID)+"/"+url.PathEscape(lineID), nil, nil)
}

// CreateCustomer registers a customer and returns the stored record.
func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	var body createCustomerRequest
	body.Data.Type = "customer"
	body.Data.Name = customer.Name
	body.Data.Email = customer.Email
	body.Data.Password = customer.Password

	var resp customerResponse
	if err := c.do(ctx, "create_customer", http.MethodPost, "/v2/customers", body, &resp); err != nil {
		return Customer{}, err
	}

	created := customer
	created.Password = ""
	if resp.Data.ID != "" {
		created.ID = resp.Data.ID
	}

	return created, nil
}

func cartItemsPath(cartID string) string {
	return "/v2/carts/" + url.PathEscape(cartID) + "/items"
}

// CartID derives the cart id of a chat.
func CartID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (c *Client) do(ctx context.Context, operation, method, path string, in, out any) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.RecordCommerceRequest(operation, status, time.Since(start))
	}()

	err := c.breaker.Call(func() error {
		return c.roundTrip(ctx, method, path, in, out)
	}, countable)
	if err == nil {
		return nil
	}

	status = "error"
	if errors.Is(err, apperrors.ErrCircuitOpen) {
		status = "circuit_open"
	}

	c.log.WarnContext(ctx, "commerce request failed",
		slog.String("operation", operation),
		slog.String("method", method),
		slog.Any("error", err),
	)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return apperrors.NewExternalAPIError(apiName, err)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("commerce: obtain token: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("commerce: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("commerce: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("commerce: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("commerce: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("commerce: decode response: %w", err)
	}

	return nil
}

// countable reports whether err indicates an unhealthy backend rather than a bad request.
func countable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
