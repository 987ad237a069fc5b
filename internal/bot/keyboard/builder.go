package keyboard

import (
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
)

// ProductsMenu lists one product per row followed by the cart button.
func ProductsMenu(t i18n.Translator, products []commerce.Product) *Layout {
	layout := NewLayout()
	for _, product := range products {
		layout.AddRow(InlineButton{Text: product.Name, Data: product.ID})
	}
	return layout.AddRow(InlineButton{Text: t.T("menu.cart"), Data: DataCart})
}

// ProductCard offers the weight choices of a product and the navigation rows.
func ProductCard(t i18n.Translator, productID string) *Layout {
	weights := make([]InlineButton, 0, len(Quantities))
	for _, q := range Quantities {
		weights = append(weights, InlineButton{
			Text: t.Format("product.weight", i18n.Vars{"Quantity": q}),
			Data: QuantityData(q, productID),
		})
	}

	return NewLayout().
		AddRow(weights...).
		AddRow(InlineButton{Text: t.T("menu.cart"), Data: DataCart}).
		AddRow(InlineButton{Text: t.T("menu.menu"), Data: DataMenu}).
		AddRow(InlineButton{Text: t.T("menu.payment"), Data: DataPayment})
}

// CartActions adds a remove button per cart line followed by menu and payment.
func CartActions(t i18n.Translator, items []commerce.CartItem) *Layout {
	layout := NewLayout()
	for _, item := range items {
		layout.AddRow(InlineButton{
			Text: t.Format("cart.remove", i18n.Vars{"Name": item.Name}),
			Data: RemoveData(item.ID),
		})
	}

	return layout.
		AddRow(InlineButton{Text: t.T("menu.menu"), Data: DataMenu}).
		AddRow(InlineButton{Text: t.T("menu.payment"), Data: DataPayment})
}

// ContinueShopping returns to the product list.
func ContinueShopping(t i18n.Translator) *Layout {
	return NewLayout().AddRow(InlineButton{Text: t.T("checkout.continue"), Data: DataMenu})
}
