// Package commerce talks to the Elastic Path (Moltin) style catalog and cart API.
package commerce

import "fmt"

// Product is a catalog entry as shown on a product card.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       string
	Stock       int
	ImageID     string
}

// CartItem is one line of a cart. ID is the line id used for removal.
type CartItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	Quantity    int
	UnitPrice   string
	Amount      string
}

// Cart holds the lines of a cart and its formatted total.
type Cart struct {
	Items []CartItem
	Total string
}

// Customer is the payload of a customer registration.
type Customer struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// APIError is returned for any non-2xx response of the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce api: status %d: %s", e.StatusCode, e.Body)
}

type formattedPrice struct {
	Formatted string `json:"formatted"`
}

type productData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Meta        struct {
		DisplayPrice struct {
			WithTax formattedPrice `json:"with_tax"`
		} `json:"display_price"`
		Stock struct {
			Level int `json:"level"`
		} `json:"stock"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

func (p productData) toProduct() Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Meta.DisplayPrice.WithTax.Formatted,
		Stock:       p.Meta.Stock.Level,
		ImageID:     p.Relationships.MainImage.Data.ID,
	}
}

type productListResponse struct {
	Data []productData `json:"data"`
}

type productResponse struct {
	Data productData `json:"data"`
}

type fileResponse struct {
	Data struct {
		Link struct {
			Href string `json:"href"`
		} `json:"link"`
	} `json:"data"`
}

type cartItemData struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit  formattedPrice `json:"unit"`
				Value formattedPrice `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type cartItemsResponse struct {
	Data []cartItemData `json:"data"`
	Meta struct {
		DisplayPrice struct {
			WithTax formattedPrice `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type addCartItemRequest struct {
	Data struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type createCustomerRequest struct {
	Data struct {
		Type     string `json:"type"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"data"`
}

type customerResponse struct {
	Data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}
